// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package archive

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dsnet/generate-archive/internal/cache"
	"github.com/dsnet/generate-archive/internal/config"
	"github.com/dsnet/generate-archive/internal/export"
	"github.com/dsnet/generate-archive/internal/logger"
	"github.com/dsnet/generate-archive/internal/index"
	"github.com/dsnet/generate-archive/internal/metrics"
	"github.com/dsnet/generate-archive/internal/render"
)

func mustWrite(t *testing.T, fp, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(fp), 0775); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fp, []byte(data), 0664); err != nil {
		t.Fatal(err)
	}
}

func mustImage(t *testing.T, fp string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(fp), 0775); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(640, 480, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	if err := imaging.Save(img, fp); err != nil {
		t.Fatal(err)
	}
}

// newExport lays out a small export:
// photo 1 and 2 have images, photo 3 has none and a mistyped description,
// photo 4 is incomplete, notes.txt cannot be matched to a photo,
// and one album has an id that is not a file name.
func newExport(t *testing.T) string {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "json", "account_profile.json"), `{
		"real_name": "Jane", "nsid": "12345@N00",
		"stats": {"faves_count": 10, "tags_count": 2}
	}`)
	mustWrite(t, filepath.Join(root, "json", "albums.json"), `{"albums": [
		{"id": "100", "title": "Beach", "photos": ["1", "0", "3"],
		 "cover_photo": "https://www.flickr.com/photos/jane/1"},
		{"id": "../evil", "title": "Evil", "photos": ["1"]}
	]}`)
	mustWrite(t, filepath.Join(root, "json", "photo_1.json"), `{"id": "1", "name": "one",
		"tags": [{"tag": "Kids"}], "count_faves": 5, "count_views": 10, "count_comments": 0}`)
	mustWrite(t, filepath.Join(root, "json", "photo_2.json"), `{"id": "2", "name": "two",
		"tags": [{"tag": "kids"}, {"tag": "new york"}], "count_faves": "5", "count_views": 3, "count_comments": 1}`)
	mustWrite(t, filepath.Join(root, "json", "photo_3.json"), `{"id": "3", "name": "three", "description": 5,
		"tags": [{"tag": "new-york"}], "count_faves": 0, "count_views": 3, "count_comments": 0}`)
	mustWrite(t, filepath.Join(root, "json", "photo_4.json"), `{"id": "4", "name": "four"}`)
	mustImage(t, filepath.Join(root, "images", "kids_1_o.jpg"))
	mustImage(t, filepath.Join(root, "images", "2_skyline.png"))
	mustWrite(t, filepath.Join(root, "images", "notes.txt"), "not a photo")
	return root
}

func newBuilder(root string) (*Builder, *metrics.Metrics) {
	cfg := config.Default(root)
	m := metrics.New()
	store := cache.New(cfg.Path(cfg.Paths.Cache))
	return New(cfg, store, m, logger.New(io.Discard, "debug", "text")), m
}

func TestRun(t *testing.T) {
	root := newExport(t)
	b, m := newBuilder(root)
	if err := b.Run(Options{}); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for _, fp := range []string{
		"html/index.html",
		"html/albums-1.html",
		"html/albums/100.html",
		"html/images/1.html",
		"html/images/2.html",
		"html/images/3.html",
		"html/tags-1.html",
		"html/tags/kids.html",
		"html/tags/" + render.TagFile("new york"),
		"html/tags/new-york.html",
		"html/favs-1.html",
		"html/favs/5.html",
		"html/favs/0.html",
		"html/views/10.html",
		"html/comments/1.html",
		"thumbnails/kids_1_o.jpg",
		"thumbnails/2_skyline.png",
		"cache/tags.json",
		"cache/map.json",
	} {
		if _, err := os.Stat(filepath.Join(root, fp)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	for _, fp := range []string{"html/images/4.html", "thumbnails/notes.txt", "html/evil.html", "albums/Evil"} {
		if _, err := os.Stat(filepath.Join(root, fp)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("unexpected output %s", fp)
		}
	}

	link := filepath.Join(root, "albums", "Beach", "kids.jpg")
	if dst, err := os.Readlink(link); err != nil {
		t.Errorf("album link: %v", err)
	} else if dst != filepath.Join(root, "images", "kids_1_o.jpg") {
		t.Errorf("album link points to %s", dst)
	}

	b1, err := os.ReadFile(filepath.Join(root, "html", "tags", "kids.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b1), "2 photos") {
		t.Errorf("case variants of a tag were not folded:\n%s", b1)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"indexed", testutil.ToFloat64(m.RecordsTotal.WithLabelValues("indexed")), 3},
		{"partial", testutil.ToFloat64(m.RecordsTotal.WithLabelValues("partial")), 1},
		{"missing_image", testutil.ToFloat64(m.AssetsSkippedTotal.WithLabelValues(metrics.ReasonMissingImage)), 1},
		{"unmatched_name", testutil.ToFloat64(m.AssetsSkippedTotal.WithLabelValues(metrics.ReasonUnmatchedName)), 1},
		{"invalid_id", testutil.ToFloat64(m.AssetsSkippedTotal.WithLabelValues(metrics.ReasonInvalidID)), 1},
		{"thumbnails", testutil.ToFloat64(m.FilesTotal.WithLabelValues(kindThumbnail, "written")), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestRunFromCache(t *testing.T) {
	root := newExport(t)
	b, _ := newBuilder(root)
	if err := b.Run(Options{}); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// Records are not needed once cached.
	if err := os.Remove(filepath.Join(root, "json", "photo_1.json")); err != nil {
		t.Fatal(err)
	}
	b, m := newBuilder(root)
	if err := b.Run(Options{FromCache: true}); err != nil {
		t.Fatalf("Run from cache error: %v", err)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(kindTag, "unchanged")); got == 0 {
		t.Error("tag pages were not reproduced identically from the cache")
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(kindThumbnail, "skipped")); got != 2 {
		t.Errorf("skipped thumbnails = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("indexed")); got != 0 {
		t.Errorf("records read from cache = %v, want 0", got)
	}
}

func TestRunFatal(t *testing.T) {
	root := newExport(t)
	mustWrite(t, filepath.Join(root, "json", "photo_5.json"), `{"id": `)
	b, _ := newBuilder(root)
	if err := b.Run(Options{}); !errors.Is(err, export.ErrUnparseable) {
		t.Errorf("Run error = %v, want ErrUnparseable", err)
	}

	b, _ = newBuilder(t.TempDir())
	if err := b.Run(Options{FromCache: true}); !errors.Is(err, cache.ErrNotCached) {
		t.Errorf("Run from empty cache error = %v, want ErrNotCached", err)
	}
}

func TestAlbumDir(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Beach", "Beach"},
		{"a/b", "a-b"},
		{"..", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := albumDir(tt.in); got != tt.want {
			t.Errorf("albumDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistinctFiles(t *testing.T) {
	entries := []index.Entry[string]{
		{Key: "new york", PhotoIDs: []string{"1", "2"}},
		{Key: "kids", PhotoIDs: []string{"3"}},
		{Key: "new-york", PhotoIDs: []string{"4"}},
	}
	// Collapse spaces as well, so that two tags share a file.
	file := func(tag string) string { return strings.ReplaceAll(tag, " ", "-") + ".html" }
	kept, dropped := distinctFiles(entries, file)
	if len(kept) != 2 || kept[0].Key != "new york" || kept[1].Key != "kids" {
		t.Errorf("kept = %v, want [new york kids]", kept)
	}
	if len(dropped) != 1 || dropped[0].Key != "new-york" {
		t.Errorf("dropped = %v, want [new-york]", dropped)
	}

	kept, dropped = distinctFiles(entries, render.TagFile)
	if len(kept) != 3 || len(dropped) != 0 {
		t.Errorf("TagFile collided: kept %v, dropped %v", kept, dropped)
	}
}
