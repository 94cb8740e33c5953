// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package engine is the host-facing entry point used by the CLI and the
// render service.
package engine
