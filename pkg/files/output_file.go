// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"os"
	"path/filepath"
)

// OutputFile is the rendered result of a template.
type OutputFile struct {
	relativePath string
	data         []byte
}

func NewOutputFile(relativePath string, data []byte) OutputFile {
	return OutputFile{relativePath, data}
}

func (f OutputFile) RelativePath() string { return f.relativePath }
func (f OutputFile) Bytes() []byte        { return f.data }

func (f OutputFile) Path(dirPath string) string {
	return filepath.Join(dirPath, filepath.FromSlash(f.relativePath))
}

func (f OutputFile) Create(dirPath string) error {
	resultPath := f.Path(dirPath)

	err := os.MkdirAll(filepath.Dir(resultPath), 0700)
	if err != nil {
		return err
	}

	return os.WriteFile(resultPath, f.data, 0600)
}
