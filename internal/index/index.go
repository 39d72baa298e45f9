// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package index derives the tag and leaderboard indexes of an archive
// from the exported photo records.
package index

import (
	"sort"
	"strings"

	"github.com/dsnet/generate-archive/internal/export"
	"github.com/dsnet/generate-archive/internal/imagemap"
)

// TagIndex maps a tag name to the ids of photos carrying it.
type TagIndex map[string][]string

// CountIndex maps a count (of favorites, views, or comments)
// to the ids of photos having exactly that count.
type CountIndex map[int][]string

// Entry is a single key of an index together with its photos.
// It is the unit of pagination.
type Entry[K comparable] struct {
	Key      K
	PhotoIDs []string
}

// Fold merges tags that differ only in case.
// Keys are lowercased and colliding photo lists are unioned without
// duplicates. Keys are visited in sorted order so the result is
// deterministic. Folding a folded index returns an equal index.
func (t TagIndex) Fold() TagIndex {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(TagIndex, len(t))
	seen := make(map[string]map[string]bool, len(t))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if seen[lk] == nil {
			seen[lk] = make(map[string]bool)
		}
		for _, id := range t[k] {
			if !seen[lk][id] {
				seen[lk][id] = true
				folded[lk] = append(folded[lk], id)
			}
		}
		if _, ok := folded[lk]; !ok {
			folded[lk] = []string{}
		}
	}
	return folded
}

// Sorted returns the tags with the most photos first.
// Tags with an equal number of photos are ordered alphabetically.
func (t TagIndex) Sorted() []Entry[string] {
	entries := make([]Entry[string], 0, len(t))
	for k, ids := range t {
		entries = append(entries, Entry[string]{Key: k, PhotoIDs: ids})
	}
	sort.Slice(entries, func(i, j int) bool {
		ni, nj := len(entries[i].PhotoIDs), len(entries[j].PhotoIDs)
		if ni != nj {
			return ni > nj
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Sorted returns the counts from highest to lowest.
func (c CountIndex) Sorted() []Entry[int] {
	entries := make([]Entry[int], 0, len(c))
	for k, ids := range c {
		entries = append(entries, Entry[int]{Key: k, PhotoIDs: ids})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key > entries[j].Key
	})
	return entries
}

// Indexes are the four derived indexes of an archive.
type Indexes struct {
	Tags      TagIndex   `json:"tags"`
	Favorites CountIndex `json:"favs"`
	Views     CountIndex `json:"views"`
	Comments  CountIndex `json:"comments"`
}

// New returns empty indexes.
func New() *Indexes {
	return &Indexes{
		Tags:      make(TagIndex),
		Favorites: make(CountIndex),
		Views:     make(CountIndex),
		Comments:  make(CountIndex),
	}
}

// Add records a photo in every index.
// Tags are keyed by their original case; see TagIndex.Fold.
func (ix *Indexes) Add(p *export.Photo) {
	for _, tag := range p.Tags {
		ix.Tags[tag] = append(ix.Tags[tag], p.ID)
	}
	for _, lb := range Leaderboards {
		c := ix.Count(lb)
		n := lb.Value(p)
		c[n] = append(c[n], p.ID)
	}
}

// Build indexes every complete photo.
func Build(photos []*export.Photo) *Indexes {
	ix := New()
	for _, p := range photos {
		if p.Complete() {
			ix.Add(p)
		}
	}
	return ix
}

// Count returns the count index for a leaderboard.
func (ix *Indexes) Count(lb Leaderboard) CountIndex {
	switch lb {
	case Favorites:
		return ix.Favorites
	case Views:
		return ix.Views
	case Comments:
		return ix.Comments
	default:
		panic("index: invalid leaderboard")
	}
}

// PhotoIDs returns every distinct photo id in any index, sorted.
func (ix *Indexes) PhotoIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	for _, list := range ix.Tags {
		add(list)
	}
	for _, lb := range Leaderboards {
		for _, list := range ix.Count(lb) {
			add(list)
		}
	}
	sort.Strings(ids)
	return ids
}

// MissingAssets returns every indexed photo id that has no image,
// each exactly once, sorted.
func (ix *Indexes) MissingAssets(m imagemap.Map) []string {
	var missing []string
	for _, id := range ix.PhotoIDs() {
		if _, ok := m.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
