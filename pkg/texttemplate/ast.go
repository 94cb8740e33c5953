// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"carvel.dev/ytpl/pkg/filepos"
)

// NodeRoot is the sequence of text and code pieces of a template.
type NodeRoot struct {
	Items []interface{}
}

type NodeText struct {
	Position filepos.Position
	Content  string

	startOffset int
}

type NodeCode struct {
	Position filepos.Position
	Content  string

	// EndPosition points at the closing delimiter
	EndPosition filepos.Position

	startOffset int
}

// AsString returns concatenated text pieces; code pieces are skipped.
func (n *NodeRoot) AsString() string {
	var result string
	for _, item := range n.Items {
		if typedItem, ok := item.(*NodeText); ok {
			result += typedItem.Content
		}
	}
	return result
}

func (n *NodeCode) Span() filepos.Span {
	return filepos.NewSpan(n.Position, n.EndPosition)
}
