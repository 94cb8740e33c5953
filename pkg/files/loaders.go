// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
)

var _ []template.Loader = []template.Loader{&DirLoader{}, &FSLoader{}, &HTTPLoader{}, &MapLoader{}}

// DirLoader resolves include names relative to a local directory.
// Names may not escape the directory; symlinks must point into allowed paths.
type DirLoader struct {
	root        string
	symlinkOpts SymlinkAllowOpts
}

func NewDirLoader(root string, symlinkOpts SymlinkAllowOpts) (*DirLoader, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("Abs path '%s': %s", root, err)
	}
	symlinkOpts.AllowedDstPaths = append([]string{absRoot}, symlinkOpts.AllowedDstPaths...)
	return &DirLoader{root: absRoot, symlinkOpts: symlinkOpts}, nil
}

func (l *DirLoader) GetPath(_ *template.ExecutionContext, _ filepos.Span, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("Expected include name '%s' to be relative", name)
	}

	result := filepath.Join(l.root, filepath.FromSlash(name))

	relPath, err := filepath.Rel(l.root, result)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("Expected include name '%s' to stay within directory '%s'", name, l.root)
	}

	return result, nil
}

func (l *DirLoader) Load(_ *template.ExecutionContext, _ filepos.Span, path string) ([]byte, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	// any path component (not just the file) may be a symlink
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("Eval symlink: %s", err)
	}
	if resolvedPath != path {
		err := Symlink{path}.IsAllowed(l.symlinkOpts)
		if err != nil {
			return nil, err
		}
	}

	return os.ReadFile(resolvedPath)
}

// FSLoader resolves include names within an fs.FS (e.g. embedded templates).
type FSLoader struct {
	fsys fs.FS
}

func NewFSLoader(fsys fs.FS) *FSLoader { return &FSLoader{fsys} }

func (l *FSLoader) GetPath(_ *template.ExecutionContext, _ filepos.Span, name string) (string, error) {
	result := path.Clean(strings.TrimPrefix(name, "./"))
	if !fs.ValidPath(result) {
		return "", fmt.Errorf("Expected include name '%s' to be a valid relative path", name)
	}
	return result, nil
}

func (l *FSLoader) Load(_ *template.ExecutionContext, _ filepos.Span, path string) ([]byte, error) {
	return fs.ReadFile(l.fsys, path)
}

// HTTPLoader resolves include names as URLs relative to a base URL.
type HTTPLoader struct {
	base   *url.URL
	Client *http.Client
}

func NewHTTPLoader(baseURL string) (*HTTPLoader, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("Parsing base URL '%s': %s", baseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &HTTPLoader{base: base, Client: &http.Client{}}, nil
}

func (l *HTTPLoader) GetPath(_ *template.ExecutionContext, _ filepos.Span, name string) (string, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("Parsing include name '%s': %s", name, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("Expected include name '%s' to be relative to '%s'", name, l.base)
	}

	result := l.base.ResolveReference(ref)
	if !strings.HasPrefix(result.Path, l.base.Path) {
		return "", fmt.Errorf("Expected include name '%s' to stay within '%s'", name, l.base)
	}
	return result.String(), nil
}

func (l *HTTPLoader) Load(_ *template.ExecutionContext, _ filepos.Span, path string) ([]byte, error) {
	src := NewHTTPSource(path)
	src.Client = l.Client
	return src.Bytes()
}

// MapLoader serves templates from memory. Aliases map additional names
// onto template names.
type MapLoader struct {
	templates map[string]string
	aliases   map[string]string

	loadsLock sync.Mutex
	loads     map[string]int
}

func NewMapLoader(templates map[string]string) *MapLoader {
	return &MapLoader{templates: templates, aliases: map[string]string{}, loads: map[string]int{}}
}

func (l *MapLoader) WithAlias(alias, name string) *MapLoader {
	l.aliases[alias] = name
	return l
}

// GetPath returns an empty path for unknown names. Aliases resolve to their
// target whether or not it exists.
func (l *MapLoader) GetPath(_ *template.ExecutionContext, _ filepos.Span, name string) (string, error) {
	if aliased, found := l.aliases[name]; found {
		return aliased, nil
	}
	if _, found := l.templates[name]; !found {
		return "", nil
	}
	return name, nil
}

// Load returns nil for unknown paths.
func (l *MapLoader) Load(_ *template.ExecutionContext, _ filepos.Span, path string) ([]byte, error) {
	l.loadsLock.Lock()
	l.loads[path]++
	l.loadsLock.Unlock()

	contents, found := l.templates[path]
	if !found {
		return nil, nil
	}
	return []byte(contents), nil
}

// Loads reports how many times path was loaded.
func (l *MapLoader) Loads(path string) int {
	l.loadsLock.Lock()
	defer l.loadsLock.Unlock()
	return l.loads[path]
}

// ChainLoader asks each loader in turn; the first one resolving a name
// owns the resulting path.
type ChainLoader struct {
	loaders []template.Loader

	ownersLock sync.Mutex
	owners     map[string]template.Loader
}

var _ template.Loader = &ChainLoader{}

func NewChainLoader(loaders ...template.Loader) *ChainLoader {
	return &ChainLoader{loaders: loaders, owners: map[string]template.Loader{}}
}

// GetPath reports the first error only when no loader resolved name.
func (l *ChainLoader) GetPath(ctx *template.ExecutionContext, span filepos.Span, name string) (string, error) {
	var firstErr error

	for _, loader := range l.loaders {
		path, err := loader.GetPath(ctx, span, name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(path) > 0 {
			l.ownersLock.Lock()
			l.owners[path] = loader
			l.ownersLock.Unlock()
			return path, nil
		}
	}

	return "", firstErr
}

func (l *ChainLoader) Load(ctx *template.ExecutionContext, span filepos.Span, path string) ([]byte, error) {
	l.ownersLock.Lock()
	loader, found := l.owners[path]
	l.ownersLock.Unlock()

	if !found {
		return nil, fmt.Errorf("Expected path '%s' to be resolved before loading", path)
	}
	return loader.Load(ctx, span, path)
}
