// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package index

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/dsnet/generate-archive/internal/export"
	"github.com/dsnet/generate-archive/internal/imagemap"
)

func photo(id string, faves, views, comments int, tags ...string) *export.Photo {
	return &export.Photo{ID: id, Tags: tags, Favorites: faves, Views: views, CommentCount: comments}
}

func TestFoldCaseVariants(t *testing.T) {
	tags := TagIndex{
		"Kids": {"p1"},
		"kids": {"p2"},
		"KIDS": {"p3"},
	}
	got := tags.Fold()
	if len(got) != 1 {
		t.Fatalf("Fold() = %v, want a single key", got)
	}
	ids := append([]string(nil), got["kids"]...)
	sort.Strings(ids)
	if want := []string{"p1", "p2", "p3"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Fold()[kids] = %v, want %v", ids, want)
	}
}

func TestFoldDeduplicates(t *testing.T) {
	tags := TagIndex{
		"Beach": {"p1", "p2"},
		"beach": {"p2", "p3", "p3"},
	}
	// Keys are visited in sorted order: "Beach" before "beach".
	want := TagIndex{"beach": {"p1", "p2", "p3"}}
	if got := tags.Fold(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fold() = %v, want %v", got, want)
	}
}

func TestFoldIdempotent(t *testing.T) {
	tags := TagIndex{
		"Sun":    {"a", "b"},
		"sun":    {"c", "a"},
		"Ocean":  {"d"},
		"forest": {"e", "f", "e"},
		"FOREST": {"g"},
	}
	once := tags.Fold()
	twice := once.Fold()
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Fold() not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
	for k := range once {
		if k != strings.ToLower(k) {
			t.Errorf("Fold() left key %q with upper case", k)
		}
	}
}

func TestTagSorted(t *testing.T) {
	tags := TagIndex{
		"b":   {"1", "2"},
		"a":   {"3", "4"},
		"big": {"1", "2", "3"},
		"one": {"9"},
	}
	var keys []string
	for _, e := range tags.Sorted() {
		keys = append(keys, e.Key)
	}
	if want := []string{"big", "a", "b", "one"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Sorted() keys = %v, want %v", keys, want)
	}
}

func TestCountSorted(t *testing.T) {
	favs := CountIndex{5: {"p1"}, 10: {"p2", "p3"}, 0: {"p4", "p5", "p6"}}
	entries := favs.Sorted()
	var keys []int
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	// Ordered by key, not by group size.
	if want := []int{10, 5, 0}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Sorted() keys = %v, want %v", keys, want)
	}
	if want := []string{"p2", "p3"}; !reflect.DeepEqual(entries[0].PhotoIDs, want) {
		t.Errorf("Sorted()[0].PhotoIDs = %v, want %v", entries[0].PhotoIDs, want)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key <= entries[i].Key {
			t.Errorf("keys not strictly descending at %d: %v", i, keys)
		}
	}
}

func TestBuild(t *testing.T) {
	partial := photo("p9", 1, 1, 1, "kids")
	partial.Missing = []string{"count_views"}
	ix := Build([]*export.Photo{
		photo("p1", 5, 100, 0, "Kids", "beach"),
		photo("p2", 10, 100, 2, "kids"),
		photo("p3", 10, 7, 0),
		partial,
	})

	wantTags := TagIndex{"Kids": {"p1"}, "beach": {"p1"}, "kids": {"p2"}}
	if !reflect.DeepEqual(ix.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", ix.Tags, wantTags)
	}
	if want := (CountIndex{5: {"p1"}, 10: {"p2", "p3"}}); !reflect.DeepEqual(ix.Favorites, want) {
		t.Errorf("Favorites = %v, want %v", ix.Favorites, want)
	}
	if want := (CountIndex{100: {"p1", "p2"}, 7: {"p3"}}); !reflect.DeepEqual(ix.Views, want) {
		t.Errorf("Views = %v, want %v", ix.Views, want)
	}
	if want := (CountIndex{0: {"p1", "p3"}, 2: {"p2"}}); !reflect.DeepEqual(ix.Comments, want) {
		t.Errorf("Comments = %v, want %v", ix.Comments, want)
	}
	if want := []string{"p1", "p2", "p3"}; !reflect.DeepEqual(ix.PhotoIDs(), want) {
		t.Errorf("PhotoIDs() = %v, want %v", ix.PhotoIDs(), want)
	}
}

func TestMissingAssets(t *testing.T) {
	ix := Build([]*export.Photo{
		photo("1", 0, 0, 0, "a", "A"),
		photo("2", 0, 0, 0, "a"),
		photo("3", 0, 0, 0),
	})
	ix.Tags = ix.Tags.Fold()
	m := imagemap.Map{"1": "x_1_o.jpg"}
	if got, want := ix.MissingAssets(m), []string{"2", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MissingAssets() = %v, want %v", got, want)
	}
}

func TestLeaderboard(t *testing.T) {
	p := photo("1", 3, 40, 2)
	tests := []struct {
		lb      Leaderboard
		dir     string
		heading string
		value   int
	}{
		{Favorites, "favs", "Most faved", 3},
		{Views, "views", "Most viewed", 40},
		{Comments, "comments", "Most commented", 2},
	}
	for _, tt := range tests {
		if got := tt.lb.Dir(); got != tt.dir {
			t.Errorf("%v.Dir() = %q, want %q", tt.lb, got, tt.dir)
		}
		if got := tt.lb.Heading(); got != tt.heading {
			t.Errorf("%v.Heading() = %q, want %q", tt.lb, got, tt.heading)
		}
		if got := tt.lb.Value(p); got != tt.value {
			t.Errorf("%v.Value() = %d, want %d", tt.lb, got, tt.value)
		}
	}
	if got := Favorites.Title(5); got != "Photos with 5 favs" {
		t.Errorf("Title(5) = %q", got)
	}
}
