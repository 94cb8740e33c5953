// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package render implements the "render" command: every template among the
given files is rendered with the data values; other files (libraries such as
"*.lib.txt" and "*.star") are only reachable through include().
*/
package render
