// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"strings"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/files"
	"github.com/spf13/cobra"
)

type RegularFilesSourceOpts struct {
	files     []string
	recursive bool
	output    string
}

func (s *RegularFilesSourceOpts) Set(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&s.files, "file", "f", nil, "File (ie local path, HTTP URL, -) (can be specified multiple times)")
	cmd.Flags().BoolVarP(&s.recursive, "recursive", "R", s.recursive, "Interpret file as directory")
	cmd.Flags().StringVarP(&s.output, "output-files", "o", "", "Directory for output")
}

type RegularFilesSource struct {
	opts RegularFilesSourceOpts
	ui   ui.UI
}

func NewRegularFilesSource(opts RegularFilesSourceOpts, ui ui.UI) *RegularFilesSource {
	return &RegularFilesSource{opts, ui}
}

func (s *RegularFilesSource) Input() (RenderInput, error) {
	if len(s.opts.files) == 0 {
		return RenderInput{}, fmt.Errorf("Expected at least one file (-f)")
	}

	filesToProcess, err := files.NewFiles(s.opts.files, s.opts.recursive)
	if err != nil {
		return RenderInput{}, err
	}

	return RenderInput{Files: filesToProcess}, nil
}

// LocalPaths are the given files that exist on the local filesystem.
func (s *RegularFilesSource) LocalPaths() []string {
	var result []string
	for _, path := range s.opts.files {
		if path == "-" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			continue
		}
		result = append(result, path)
	}
	return result
}

func (s *RegularFilesSource) Output(out RenderOutput) error {
	if out.Err != nil {
		return out.Err
	}

	if len(s.opts.output) > 0 {
		return files.NewOutputDirectory(s.opts.output, out.Files, s.ui).Write()
	}

	for _, file := range out.Files {
		s.ui.Debugf("### %s\n", file.RelativePath())
		s.ui.Printf("%s", file.Bytes()) // no newline
	}

	return nil
}
