// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package datavalues assembles the data model handed to templates.

Values come from (in increasing precedence): data values files
(YAML, JSON, TOML or dotenv, chosen by extension), prefixed environment
variables, key=value flags and key=file flags. Dotted keys ("a.b.c") address
nested maps. The result is an ordered map exposed to templates as `values`.
*/
package datavalues
