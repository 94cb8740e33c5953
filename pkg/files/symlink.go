// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Symlink is a template file that is a symbolic link.
type Symlink struct {
	path string
}

// SymlinkAllowOpts restricts where included symlinks may point to.
type SymlinkAllowOpts struct {
	AllowAll        bool
	AllowedDstPaths []string
}

func (s Symlink) IsAllowed(opts SymlinkAllowOpts) error {
	if opts.AllowAll {
		return nil
	}

	dstPath, err := filepath.EvalSymlinks(s.path)
	if err != nil {
		return fmt.Errorf("Eval symlink: %s", err)
	}

	for _, allowedDstPath := range opts.AllowedDstPaths {
		matched, err := s.isIn(dstPath, allowedDstPath)
		if matched || err != nil {
			return err
		}
	}

	return fmt.Errorf("Expected symlink file '%s' -> '%s' to be allowed, but was not "+
		"(hint: use --dangerous-allow-symlink-destination)", s.path, dstPath)
}

func (s Symlink) isIn(path, allowedPath string) (bool, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("Abs path '%s': %s", path, err)
	}

	// allowed paths may themselves be symlinked (e.g. /tmp on macOS)
	allowedPath, err = filepath.Abs(allowedPath)
	if err != nil {
		return false, fmt.Errorf("Abs path '%s': %s", allowedPath, err)
	}
	if resolved, err := filepath.EvalSymlinks(allowedPath); err == nil {
		allowedPath = resolved
	}

	relPath, err := filepath.Rel(allowedPath, path)
	if err != nil {
		return false, nil
	}

	return relPath != ".." && !strings.HasPrefix(relPath, ".."+string(filepath.Separator)), nil
}
