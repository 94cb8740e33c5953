// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package template provides the execution runtime of ytpl.

A template is text that a front-end (see package texttemplate) parses into a
CompiledTemplate: an opaque evaluable Node, the template's source path and the
Diagnostics collected while parsing. A CompiledTemplate is immutable and may be
evaluated many times.

Evaluation happens against an ExecutionContext which owns all mutable state of a
rendering session: the stack of global scopes, the stack of output sinks, the
stack of source files currently executing, the cache of CompiledTemplates
reached through includes and a keyed side-channel store ("tags") for builtins
that need per-context state.

Every push made while evaluating is matched by a pop on every exit path; a
failed evaluation leaves the context's stacks exactly as deep as it found them.
*/
package template
