// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concepts of Position and Span: a source name
(usually a template path) and a line/column location (or range of locations)
within that source.

Positions are crucial when reporting diagnostics and runtime failures to the
user. Not all positions point within a file (e.g. code that is generated). The
zero-value of Position (can be created using NewUnknownPosition()) represents
this case.
*/
package filepos
