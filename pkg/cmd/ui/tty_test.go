// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui_test

import (
	"bytes"
	"fmt"
	"testing"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"github.com/stretchr/testify/assert"
)

func TestTTYSeparatesStreams(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	tty := ui.NewCustomWriterTTY(false, stdout, stderr)

	tty.Printf("out %d\n", 1)
	tty.Warnf("warn %d\n", 2)
	tty.Debugf("debug %d\n", 3)
	fmt.Fprint(tty.DebugWriter(), "hidden")

	assert.Equal(t, "out 1\n", stdout.String())
	assert.Equal(t, "warn 2\n", stderr.String())
}

func TestTTYShowsDebugOutput(t *testing.T) {
	stderr := &bytes.Buffer{}
	tty := ui.NewCustomWriterTTY(true, &bytes.Buffer{}, stderr)

	tty.Debugf("debug %d\n", 3)
	fmt.Fprint(tty.DebugWriter(), "shown\n")

	assert.Equal(t, "debug 3\nshown\n", stderr.String())
}
