// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default(root)) {
		t.Errorf("Load = %+v, want defaults", cfg)
	}
	if cfg.PageSize.Tags != 200 || cfg.PageSize.Leaderboards != 100 || cfg.PageSize.Albums != 100 {
		t.Errorf("PageSize = %+v", cfg.PageSize)
	}
	if cfg.Overwrite.Photos || cfg.Overwrite.Thumbnails || !cfg.Overwrite.Tags {
		t.Errorf("Overwrite = %+v", cfg.Overwrite)
	}
	if got, want := cfg.Path(cfg.Paths.JSON), filepath.Join(root, "json"); got != want {
		t.Errorf("Path(json) = %q, want %q", got, want)
	}
	if got := cfg.Path("/abs/html"); got != "/abs/html" {
		t.Errorf("Path(/abs/html) = %q", got)
	}
}

func TestLoadPrecedence(t *testing.T) {
	root := t.TempDir()
	yml := filepath.Join(root, "archive.yaml")
	if err := os.WriteFile(yml, []byte(`
pageSize:
  tags: 50
  albums: 10
thumbnail:
  extensions: [jpg, .PNG]
overwrite:
  photos: true
logging:
  level: debug
`), 0664); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("ARCHIVE_PAGE_SIZE_ALBUMS=20\n"), 0664); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARCHIVE_LOG_LEVEL", "warn")
	t.Setenv("ARCHIVE_OVERWRITE_TAGS", "false")
	os.Unsetenv("ARCHIVE_PAGE_SIZE_ALBUMS")
	t.Cleanup(func() { os.Unsetenv("ARCHIVE_PAGE_SIZE_ALBUMS") })

	cfg, err := Load(root, yml)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Root != root {
		t.Errorf("Root = %q, want %q", cfg.Root, root)
	}
	if cfg.PageSize.Tags != 50 || cfg.PageSize.Leaderboards != 100 || cfg.PageSize.Albums != 20 {
		t.Errorf("PageSize = %+v, want tags=50 leaderboards=100 albums=20", cfg.PageSize)
	}
	if want := []string{".jpg", ".PNG"}; !reflect.DeepEqual(cfg.Thumbnail.Extensions, want) {
		t.Errorf("Extensions = %v, want %v", cfg.Thumbnail.Extensions, want)
	}
	if !cfg.Overwrite.Photos || cfg.Overwrite.Tags {
		t.Errorf("Overwrite = %+v", cfg.Overwrite)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := Load(root, filepath.Join(root, "missing.yaml")); err == nil {
		t.Error("Load with missing config file succeeded")
	}

	bad := filepath.Join(root, "bad.yaml")
	if err := os.WriteFile(bad, []byte("thumbnail: [\n"), 0664); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, bad); err == nil {
		t.Error("Load with malformed config file succeeded")
	}

	t.Setenv("ARCHIVE_PAGE_SIZE_TAGS", "many")
	if _, err := Load(root, ""); err == nil {
		t.Error("Load with invalid ARCHIVE_PAGE_SIZE_TAGS succeeded")
	}
}
