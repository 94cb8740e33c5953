// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package files provides primitives for enumerating and loading templates from
various file or file-like Source's, resolving include names through Loader
implementations, and writing rendered output to filesystem files and
directories.

Files named like `header.lib.txt` and Starlark files (`.star`) are libraries:
they are only rendered when included by other templates.
*/
package files
