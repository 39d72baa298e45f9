// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package cache persists the derived indexes between runs so that
// pages can be regenerated without reading every photo record.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsnet/generate-archive/internal/imagemap"
	"github.com/dsnet/generate-archive/internal/index"
	"github.com/dsnet/generate-archive/internal/output"
)

// ErrNotCached reports that a cache file does not exist.
var ErrNotCached = errors.New("not cached")

const (
	tagsFile     = "tags.json"
	favsFile     = "favs.json"
	viewsFile    = "views.json"
	commentsFile = "comments.json"
	mapFile      = "map.json"
)

// Store is a directory of cache files.
type Store struct {
	dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir is the directory of the cache files.
func (s *Store) Dir() string { return s.dir }

// SaveIndexes writes one file per index.
// Tags are stored as extracted, before case folding.
func (s *Store) SaveIndexes(ix *index.Indexes) error {
	files := []struct {
		name string
		v    any
	}{
		{tagsFile, ix.Tags},
		{favsFile, ix.Favorites},
		{viewsFile, ix.Views},
		{commentsFile, ix.Comments},
	}
	for _, f := range files {
		if err := s.save(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// LoadIndexes reads the indexes written by SaveIndexes.
func (s *Store) LoadIndexes() (*index.Indexes, error) {
	ix := index.New()
	files := []struct {
		name string
		v    any
	}{
		{tagsFile, &ix.Tags},
		{favsFile, &ix.Favorites},
		{viewsFile, &ix.Views},
		{commentsFile, &ix.Comments},
	}
	for _, f := range files {
		if err := s.load(f.name, f.v); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// SaveImageMap writes the photo id to image filename mapping.
func (s *Store) SaveImageMap(m imagemap.Map) error {
	return s.save(mapFile, m)
}

// LoadImageMap reads the mapping written by SaveImageMap.
func (s *Store) LoadImageMap() (imagemap.Map, error) {
	m := make(imagemap.Map)
	if err := s.load(mapFile, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) save(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	_, err = output.WriteFile(filepath.Join(s.dir, name), append(b, '\n'), true)
	return err
}

func (s *Store) load(name string, v any) error {
	fp := filepath.Join(s.dir, name)
	b, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotCached, fp)
		}
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", fp, err)
	}
	return nil
}
