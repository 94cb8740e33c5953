// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes parse, cache, render and include counters as well
// as HTTP request metrics via Prometheus.
package metrics
