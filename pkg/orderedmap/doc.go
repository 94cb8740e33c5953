// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a map implementation where the order of keys is
maintained (unlike the native Go map).

Data values keep the order in which they were declared so that templates
iterating over them, and the output of `ytpl render --data-values-inspect`,
are deterministic and stable.
*/
package orderedmap
