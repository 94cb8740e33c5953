// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"time"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/datavalues"
	"carvel.dev/ytpl/pkg/engine"
	"carvel.dev/ytpl/pkg/experiments"
	"carvel.dev/ytpl/pkg/files"
	"carvel.dev/ytpl/pkg/orderedmap"
	"carvel.dev/ytpl/pkg/template"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type RenderOptions struct {
	Debug bool
	Mode  string
	Watch bool

	IncludeDir                        string
	IncludeURL                        string
	DangerousAllowSymlinkDestinations []string

	RegularFilesSourceOpts RegularFilesSourceOpts
	DataValuesFlags        datavalues.DataValuesFlags
}

type RenderInput struct {
	Files []*files.File
}

type RenderOutput struct {
	Files []files.OutputFile
	Err   error
	Empty bool
}

func NewOptions() *RenderOptions {
	return &RenderOptions{
		Mode:                   template.ModeDefault.String(),
		RegularFilesSourceOpts: RegularFilesSourceOpts{recursive: true},
	}
}

func NewCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"r"},
		Short:   "Render text templates",
		RunE:    func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().StringVar(&o.Mode, "mode", o.Mode, "Parse mode of templates (default, script, frontmatter, frontmatter-only)")
	cmd.Flags().BoolVar(&o.Watch, "watch", false, "Render again whenever local files change")
	cmd.Flags().StringVar(&o.IncludeDir, "include-dir", "", "Directory to resolve includes not found among given files")
	cmd.Flags().StringVar(&o.IncludeURL, "include-url", "", "Base URL to resolve includes not found locally (experimental: "+experiments.HTTPIncludes+")")
	cmd.Flags().StringSliceVar(&o.DangerousAllowSymlinkDestinations, "dangerous-allow-symlink-destination", nil,
		"Symlinks under --include-dir may point into these paths (can be specified multiple times)")
	o.RegularFilesSourceOpts.Set(cmd)
	o.DataValuesFlags.Set(cmd)
	return cmd
}

func (o *RenderOptions) Run() error {
	return o.RunWithUI(ui.NewTTY(o.Debug))
}

func (o *RenderOptions) RunWithUI(ui ui.UI) error {
	src := NewRegularFilesSource(o.RegularFilesSourceOpts, ui)

	if o.Watch {
		return NewWatcher(src.LocalPaths(), ui).Run(func() error { return o.runOnce(src, ui) })
	}
	return o.runOnce(src, ui)
}

func (o *RenderOptions) runOnce(src *RegularFilesSource, ui ui.UI) error {
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Now().Sub(t1))
	}()

	in, err := src.Input()
	if err != nil {
		return err
	}

	out := o.RunWithFiles(in, ui)
	if out.Empty {
		return nil
	}

	return src.Output(out)
}

func (o *RenderOptions) RunWithFiles(in RenderInput, ui ui.UI) RenderOutput {
	parseMode, err := template.NewParseModeFromString(o.Mode)
	if err != nil {
		return RenderOutput{Err: err}
	}

	values, err := o.DataValuesFlags.Values()
	if err != nil {
		return RenderOutput{Err: err}
	}

	if o.DataValuesFlags.Inspect {
		return o.inspectValues(values, ui)
	}

	loader, err := o.loader(in)
	if err != nil {
		return RenderOutput{Err: err}
	}

	parseOpts := template.ParseOpts{Mode: parseMode}

	eng := engine.New(engine.Opts{
		Loader:    loader,
		ParseOpts: parseOpts,
		UI:        ui,
		Cache:     template.NewTemplateCache(),
	})

	var outputFiles []files.OutputFile

	for _, file := range in.Files {
		if !file.IsTemplate() {
			ui.Debugf("skipping library file %s\n", file.RelativePath())
			continue
		}

		contents, err := file.Bytes()
		if err != nil {
			return RenderOutput{Err: fmt.Errorf("Reading %s: %s", file.Description(), err)}
		}

		tpl := eng.ParseWith(string(contents), file.RelativePath(), file.ParseOpts(parseOpts))
		for _, diag := range tpl.Diagnostics() {
			if diag.Severity != template.SeverityError {
				ui.Warnf("Warning: %s\n", diag)
			}
		}

		result, err := eng.Render(tpl, values)
		if err != nil {
			return RenderOutput{Err: err}
		}

		outputFiles = append(outputFiles, files.NewOutputFile(file.RelativePath(), []byte(result)))
	}

	return RenderOutput{Files: outputFiles}
}

// loader resolves includes among the given files first, then within
// --include-dir, then under --include-url.
func (o *RenderOptions) loader(in RenderInput) (template.Loader, error) {
	tpls := map[string]string{}
	for _, file := range in.Files {
		contents, err := file.Bytes()
		if err != nil {
			return nil, fmt.Errorf("Reading %s: %s", file.Description(), err)
		}
		tpls[file.RelativePath()] = string(contents)
	}

	loaders := []template.Loader{files.NewMapLoader(tpls)}

	if len(o.IncludeDir) > 0 {
		dirLoader, err := files.NewDirLoader(o.IncludeDir, files.SymlinkAllowOpts{
			AllowedDstPaths: o.DangerousAllowSymlinkDestinations,
		})
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, dirLoader)
	}

	if len(o.IncludeURL) > 0 {
		if !experiments.IsHTTPIncludesEnabled() {
			return nil, fmt.Errorf("Expected experiment '%s' to be enabled (via %s env variable) to use --include-url",
				experiments.HTTPIncludes, experiments.Env)
		}
		httpLoader, err := files.NewHTTPLoader(o.IncludeURL)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, httpLoader)
	}

	return files.NewChainLoader(loaders...), nil
}

func (o *RenderOptions) inspectValues(values *orderedmap.Map, ui ui.UI) RenderOutput {
	valBytes, err := yaml.Marshal(values)
	if err != nil {
		return RenderOutput{Err: fmt.Errorf("Marshaling data values: %s", err)}
	}

	ui.Printf("%s", valBytes) // no newline

	return RenderOutput{Empty: true}
}
