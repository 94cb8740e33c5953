// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"strings"
)

// NodeCodeMeta interprets markers at the edges of a code piece:
// `(@-` / `-@)` trim surrounding whitespace, `(@=` prints the expression.
type NodeCodeMeta struct {
	*NodeCode
}

// ShouldTrimSpaceLeft indicates whether leading spaces should be removed (because the left-trim token, `-`, was present)
func (p NodeCodeMeta) ShouldTrimSpaceLeft() bool {
	return strings.HasPrefix(p.Content, "-")
}

func (p NodeCodeMeta) ShouldTrimSpaceRight() bool {
	return strings.HasSuffix(p.Content, "-") && len(p.prefix()) < len(p.Content)
}

func (p NodeCodeMeta) ShouldPrint() bool {
	return strings.HasPrefix(p.Content, "=") || strings.HasPrefix(p.Content, "-=")
}

func (p NodeCodeMeta) IsEmpty() bool {
	return len(strings.TrimSpace(p.Code())) == 0
}

// Code is the Starlark source without markers.
func (p NodeCodeMeta) Code() string {
	result := strings.TrimPrefix(p.Content, p.prefix())
	if p.ShouldTrimSpaceRight() {
		result = strings.TrimSuffix(result, "-")
	}
	return result
}

// CodeOffset is the number of bytes of markers preceding the code.
func (p NodeCodeMeta) CodeOffset() int {
	return len(p.prefix())
}

func (p NodeCodeMeta) prefix() string {
	for _, prefix := range []string{"-=", "=", "-"} { // longer first
		if strings.HasPrefix(p.Content, prefix) {
			return prefix
		}
	}
	return ""
}
