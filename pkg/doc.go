// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of ytpl.

Packages are layered; each one depends on the others only to the degree
required. In the inventory below, packages are named alongside their coupling
with the rest of the codebase:

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

ytpl is built into a command-line tool:

	./cmd/ytpl

# Commands

	(1) => pkg/cmd => (10)
	(1) => pkg/cmd/render => (7)

"render" renders every template file given to it, "eval" prints the value of a
single template, "serve" exposes rendering over HTTP.

	(1) => pkg/server => (4)
	(2) => pkg/metrics => (1)

# Engine

The engine ties a parser, a loader and the builtin library together and drives
a template through front matter evaluation and rendering.

	(3) => pkg/engine => (5)

# Templating

Each source template is compiled into a Starlark program whose job is to write
the output. The ExecutionContext carries the scope, output and source-file
stacks shared by a template and everything it includes.

	(7) => pkg/template => (2)
	(4) => pkg/template/core => (1)
	(1) => pkg/texttemplate => (3)

# Builtin Library

Functions available to every template, most importantly include().

	(1) => pkg/tpllibrary => (4)

# Inputs

Template sources, include loaders and data values.

	(2) => pkg/files => (3)
	(2) => pkg/datavalues => (1)

# Utilities

	(4) => pkg/cmd/ui => (0)
	(4) => pkg/orderedmap => (0)
	(5) => pkg/filepos => (0)
	(2) => pkg/version => (0)
	(2) => pkg/experiments => (0)

# Dependencies

Each package's dependencies on other packages within this module are as follows
(if a package is not listed, it has no dependencies on other packages within
this module):

	pkg/cmd:
	- pkg/cmd/render
	- pkg/cmd/ui
	- pkg/datavalues
	- pkg/engine
	- pkg/experiments
	- pkg/files
	- pkg/metrics
	- pkg/server
	- pkg/template
	- pkg/version
	pkg/cmd/render:
	- pkg/cmd/ui
	- pkg/datavalues
	- pkg/engine
	- pkg/experiments
	- pkg/files
	- pkg/orderedmap
	- pkg/template
	pkg/server:
	- pkg/cmd/ui
	- pkg/engine
	- pkg/metrics
	- pkg/orderedmap
	pkg/engine:
	- pkg/filepos
	- pkg/template
	- pkg/template/core
	- pkg/texttemplate
	- pkg/tpllibrary
	pkg/tpllibrary:
	- pkg/filepos
	- pkg/template
	- pkg/template/core
	- pkg/version
	pkg/texttemplate:
	- pkg/filepos
	- pkg/template
	- pkg/template/core
	pkg/template:
	- pkg/filepos
	- pkg/template/core
	pkg/template/core:
	- pkg/orderedmap
	pkg/files:
	- pkg/cmd/ui
	- pkg/filepos
	- pkg/template
	pkg/datavalues:
	- pkg/orderedmap
	pkg/metrics:
	- pkg/template
*/
package pkg
