// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"carvel.dev/ytpl/pkg/template"
)

var (
	scriptExts = []string{".star"}
	libraryExt = "lib" // eg header.lib.txt
)

type Type int

const (
	TypeUnknown Type = iota
	TypeText
	TypeScript
)

// File is a template given to the CLI.
type File struct {
	src     Source
	relPath string
}

func NewFiles(paths []string, recursive bool) ([]*File, error) {
	var fileSrcs []Source

	for _, path := range paths {
		switch {
		case path == "-":
			fileSrcs = append(fileSrcs, NewStdinSource())

		case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
			// rendering reads a file more than once
			fileSrcs = append(fileSrcs, NewCachedSource(NewHTTPSource(path)))

		default:
			fileInfo, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("Checking file '%s': %s", path, err)
			}

			if fileInfo.IsDir() {
				if !recursive {
					return nil, fmt.Errorf("Expected file '%s' to not be a directory", path)
				}

				var selectedPaths []string

				err := filepath.Walk(path, func(walkedPath string, fi os.FileInfo, err error) error {
					if err != nil || fi.IsDir() {
						return err
					}
					selectedPaths = append(selectedPaths, walkedPath)
					return nil
				})
				if err != nil {
					return nil, fmt.Errorf("Listing files '%s': %s", path, err)
				}

				sort.Strings(selectedPaths)

				for _, selectedPath := range selectedPaths {
					fileSrcs = append(fileSrcs, NewLocalSource(selectedPath, path))
				}
			} else {
				fileSrcs = append(fileSrcs, NewLocalSource(path, ""))
			}
		}
	}

	var files []*File

	for _, fileSrc := range fileSrcs {
		file, err := NewFileFromSource(fileSrc)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}

func NewFileFromSource(fileSrc Source) (*File, error) {
	relPath, err := fileSrc.RelativePath()
	if err != nil {
		return nil, fmt.Errorf("Calculating relative path for '%s': %s", fileSrc.Description(), err)
	}

	return &File{src: fileSrc, relPath: relPath}, nil
}

func (r *File) Description() string    { return r.src.Description() }
func (r *File) RelativePath() string   { return r.relPath }
func (r *File) Bytes() ([]byte, error) { return r.src.Bytes() }

func (r *File) Type() Type {
	if r.matchesExt(scriptExts) {
		return TypeScript
	}
	return TypeText
}

func (r *File) IsLibrary() bool {
	exts := strings.Split(filepath.Base(r.RelativePath()), ".")

	if len(exts) > 2 && exts[len(exts)-2] == libraryExt {
		return true
	}

	// make exception for starlark files as they are just pure code
	return r.matchesExt(scriptExts)
}

// IsTemplate reports whether the file is rendered on its own.
func (r *File) IsTemplate() bool { return !r.IsLibrary() }

// ParseOpts picks script-only mode for Starlark files and opts otherwise.
func (r *File) ParseOpts(opts template.ParseOpts) template.ParseOpts {
	if r.Type() == TypeScript {
		opts.Mode = template.ModeScriptOnly
	}
	return opts
}

func (r *File) matchesExt(exts []string) bool {
	filename := filepath.Base(r.RelativePath())
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
