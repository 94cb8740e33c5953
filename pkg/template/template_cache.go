// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"sort"
	"sync"
)

// TemplateCache holds CompiledTemplates keyed by canonical path
// (see ParseOpts.CacheKey). Entries are never evicted.
type TemplateCache interface {
	Get(path string) (*CompiledTemplate, bool)
	// Add inserts tpl unless path is already present; it returns the cached template.
	Add(path string, tpl *CompiledTemplate) *CompiledTemplate
	Paths() []string
}

type mapTemplateCache struct {
	tpls map[string]*CompiledTemplate
}

var _ TemplateCache = &mapTemplateCache{}

// NewTemplateCache returns a cache for use by a single ExecutionContext.
func NewTemplateCache() TemplateCache {
	return &mapTemplateCache{tpls: map[string]*CompiledTemplate{}}
}

func (c *mapTemplateCache) Get(path string) (*CompiledTemplate, bool) {
	tpl, found := c.tpls[path]
	return tpl, found
}

func (c *mapTemplateCache) Add(path string, tpl *CompiledTemplate) *CompiledTemplate {
	if existing, found := c.tpls[path]; found {
		return existing
	}
	c.tpls[path] = tpl
	return tpl
}

func (c *mapTemplateCache) Paths() []string { return sortedKeys(c.tpls) }

// SyncTemplateCache may be shared by ExecutionContexts running on different goroutines.
type SyncTemplateCache struct {
	lock sync.RWMutex
	tpls map[string]*CompiledTemplate
}

var _ TemplateCache = &SyncTemplateCache{}

func NewSyncTemplateCache() *SyncTemplateCache {
	return &SyncTemplateCache{tpls: map[string]*CompiledTemplate{}}
}

func (c *SyncTemplateCache) Get(path string) (*CompiledTemplate, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	tpl, found := c.tpls[path]
	return tpl, found
}

func (c *SyncTemplateCache) Add(path string, tpl *CompiledTemplate) *CompiledTemplate {
	c.lock.Lock()
	defer c.lock.Unlock()

	if existing, found := c.tpls[path]; found {
		return existing
	}
	c.tpls[path] = tpl
	return tpl
}

func (c *SyncTemplateCache) Paths() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return sortedKeys(c.tpls)
}

func sortedKeys(tpls map[string]*CompiledTemplate) []string {
	var result []string
	for path := range tpls {
		result = append(result, path)
	}
	return sortedStrings(result)
}

func sortedStrings(strs []string) []string {
	sort.Strings(strs)
	return strs
}
