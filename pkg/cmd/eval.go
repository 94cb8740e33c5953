// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/datavalues"
	"carvel.dev/ytpl/pkg/engine"
	"carvel.dev/ytpl/pkg/files"
	"carvel.dev/ytpl/pkg/template"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type EvalOptions struct {
	File   string
	Mode   string
	Output string
	Debug  bool

	DataValuesFlags datavalues.DataValuesFlags
}

func NewEvalOptions() *EvalOptions {
	return &EvalOptions{Mode: template.ModeScriptOnly.String(), Output: "yaml"}
}

func NewEvalCmd(o *EvalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a template and print its value",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run(ui.NewTTY(o.Debug)) },
	}
	cmd.Flags().StringVarP(&o.File, "file", "f", "", "File to evaluate (ie local path, HTTP URL, -)")
	cmd.Flags().StringVar(&o.Mode, "mode", o.Mode, "Parse mode (default, script, frontmatter, frontmatter-only)")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format (yaml, json)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	o.DataValuesFlags.Set(cmd)
	return cmd
}

func (o *EvalOptions) Run(ui ui.UI) error {
	if len(o.File) == 0 {
		return fmt.Errorf("Expected file to evaluate (-f)")
	}

	parseMode, err := template.NewParseModeFromString(o.Mode)
	if err != nil {
		return err
	}

	values, err := o.DataValuesFlags.Values()
	if err != nil {
		return err
	}

	fs, err := files.NewFiles([]string{o.File}, false)
	if err != nil {
		return err
	}

	contents, err := fs[0].Bytes()
	if err != nil {
		return fmt.Errorf("Reading %s: %s", fs[0].Description(), err)
	}

	engineOpts := engine.Opts{ParseOpts: template.ParseOpts{Mode: parseMode}, UI: ui}

	if o.File != "-" {
		// includes are resolved next to the evaluated file
		loader, err := files.NewDirLoader(filepath.Dir(o.File), files.SymlinkAllowOpts{})
		if err != nil {
			return err
		}
		engineOpts.Loader = loader
	}

	eng := engine.New(engineOpts)

	val, err := eng.Eval(eng.Parse(string(contents), fs[0].RelativePath()), values)
	if err != nil {
		return err
	}

	out, err := o.marshal(val)
	if err != nil {
		return err
	}

	ui.Printf("%s", out)
	return nil
}

func (o *EvalOptions) marshal(val interface{}) ([]byte, error) {
	switch o.Output {
	case "json":
		out, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("Marshaling value as JSON: %s", err)
		}
		return append(out, '\n'), nil

	case "yaml":
		out, err := yaml.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("Marshaling value as YAML: %s", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("Unknown output format '%s' (known: yaml, json)", o.Output)
	}
}
