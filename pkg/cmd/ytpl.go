// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/ytpl/pkg/cmd/render"
	"carvel.dev/ytpl/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
)

type YtplOptions struct{}

func NewDefaultYtplOptions() *YtplOptions {
	return &YtplOptions{}
}

func NewDefaultYtplCmd() *cobra.Command {
	return NewYtplCmd(NewDefaultYtplOptions())
}

func NewYtplCmd(o *YtplOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ytpl",
		Version: version.Version,
		Short:   "ytpl renders text templates",
		Long: `ytpl renders text templates.

Templates are text with (@ code @) statements and (@= expr @) expressions.
Templates may include each other with include("name", *args).`,
	}

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(render.NewCmd(render.NewOptions()))
	cmd.AddCommand(NewEvalCmd(NewEvalOptions()))
	cmd.AddCommand(NewServeCmd(NewServeOptions()))
	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
