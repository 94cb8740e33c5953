// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/experiments"
	"carvel.dev/ytpl/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct{}

func NewVersionOptions() *VersionOptions {
	return &VersionOptions{}
}

func NewVersionCmd(o *VersionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run(ui.NewTTY(false)) },
	}
	return cmd
}

func (o *VersionOptions) Run(ui ui.UI) error {
	ui.Printf("ytpl version %s\n", version.Version)

	if enabled := experiments.GetEnabled(); len(enabled) > 0 {
		ui.Printf("- experiments: %v\n", enabled)
	}

	return nil
}
