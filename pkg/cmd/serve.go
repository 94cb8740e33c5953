// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"time"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/datavalues"
	"carvel.dev/ytpl/pkg/engine"
	"carvel.dev/ytpl/pkg/files"
	"carvel.dev/ytpl/pkg/metrics"
	"carvel.dev/ytpl/pkg/server"
	"carvel.dev/ytpl/pkg/template"
	"github.com/spf13/cobra"
)

type ServeOptions struct {
	ListenAddr   string
	Dir          string
	Mode         string
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	DataValuesFlags datavalues.DataValuesFlags
}

func NewServeOptions() *ServeOptions {
	return &ServeOptions{
		ListenAddr:   "localhost:8080",
		Dir:          ".",
		Mode:         template.ModeDefault.String(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func NewServeCmd(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve templates over HTTP (POST /render/<name>)",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().StringVar(&o.ListenAddr, "listen-addr", o.ListenAddr, "Listen address")
	cmd.Flags().StringVar(&o.Dir, "dir", o.Dir, "Directory with templates")
	cmd.Flags().StringVar(&o.Mode, "mode", o.Mode, "Parse mode of templates (default, script, frontmatter, frontmatter-only)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().DurationVar(&o.ReadTimeout, "read-timeout", o.ReadTimeout, "Maximum duration for reading a request")
	cmd.Flags().DurationVar(&o.WriteTimeout, "write-timeout", o.WriteTimeout, "Maximum duration for rendering and writing a response")
	o.DataValuesFlags.Set(cmd)
	return cmd
}

func (o *ServeOptions) Run() error {
	srv, err := o.NewServer(ui.NewTTY(o.Debug))
	if err != nil {
		return err
	}
	return srv.Run()
}

// NewServer builds the render service; templates are parsed once and
// shared between requests.
func (o *ServeOptions) NewServer(ui ui.UI) (*server.Server, error) {
	parseMode, err := template.NewParseModeFromString(o.Mode)
	if err != nil {
		return nil, err
	}

	values, err := o.DataValuesFlags.Values()
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	eng := engine.New(engine.Opts{
		Loader:    files.NewFSLoader(os.DirFS(o.Dir)),
		ParseOpts: template.ParseOpts{Mode: parseMode},
		UI:        ui,
		Observer:  m,
		Cache:     template.NewSyncTemplateCache(),
	})

	return server.NewServer(server.ServerOpts{
		ListenAddr:   o.ListenAddr,
		Engine:       eng,
		Metrics:      m,
		UI:           ui,
		Values:       values,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	}), nil
}
