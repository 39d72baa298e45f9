// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package config loads the archive configuration from an optional YAML
// file, an optional .env file, and ARCHIVE_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dsnet/generate-archive/internal/paginate"
)

// Config is the archive configuration.
type Config struct {
	// Root is the export directory. Relative paths are resolved against it.
	Root      string          `yaml:"root"`
	Paths     PathsConfig     `yaml:"paths"`
	PageSize  PageSizeConfig  `yaml:"pageSize"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Overwrite OverwriteConfig `yaml:"overwrite"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// PathsConfig holds the input and output directories.
type PathsConfig struct {
	JSON       string `yaml:"json"`
	Images     string `yaml:"images"`
	HTML       string `yaml:"html"`
	Thumbnails string `yaml:"thumbnails"`
	Albums     string `yaml:"albums"`
	Cache      string `yaml:"cache"`
	Logs       string `yaml:"logs"`
}

// PageSizeConfig is the number of entries per index page.
type PageSizeConfig struct {
	Tags         int `yaml:"tags"`
	Leaderboards int `yaml:"leaderboards"`
	Albums       int `yaml:"albums"`
}

// ThumbnailConfig controls thumbnail generation.
type ThumbnailConfig struct {
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Extensions []string `yaml:"extensions"`
}

// OverwriteConfig controls whether existing output is regenerated,
// per kind of output.
type OverwriteConfig struct {
	Photos       bool `yaml:"photos"`
	Thumbnails   bool `yaml:"thumbnails"`
	Profile      bool `yaml:"profile"`
	Albums       bool `yaml:"albums"`
	Tags         bool `yaml:"tags"`
	Leaderboards bool `yaml:"leaderboards"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the metrics written at the end of a run.
type MetricsConfig struct {
	// Textfile is a path to write Prometheus text-format metrics to.
	// Empty disables it.
	Textfile string `yaml:"textfile"`
}

// Default returns the default configuration for the export in root.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Paths: PathsConfig{
			JSON:       "json",
			Images:     "images",
			HTML:       "html",
			Thumbnails: "thumbnails",
			Albums:     "albums",
			Cache:      "cache",
			Logs:       "logs",
		},
		PageSize: PageSizeConfig{
			Tags:         paginate.TagsPerPage,
			Leaderboards: paginate.LeaderboardsPerPage,
			Albums:       paginate.AlbumsPerPage,
		},
		Thumbnail: ThumbnailConfig{
			Width:      300,
			Height:     300,
			Extensions: []string{".jpg", ".jpeg", ".gif", ".png"},
		},
		Overwrite: OverwriteConfig{
			Photos:       false,
			Thumbnails:   false,
			Profile:      true,
			Albums:       true,
			Tags:         true,
			Leaderboards: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the configuration for the export in root.
// The YAML file at path is read if path is non-empty,
// followed by root/.env if it exists, followed by the environment.
func Load(root, path string) (*Config, error) {
	cfg := Default(root)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if cfg.Root == "" {
			cfg.Root = root
		}
	}
	if err := godotenv.Load(filepath.Join(cfg.Root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads ARCHIVE_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ARCHIVE_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("ARCHIVE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ARCHIVE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ARCHIVE_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("ARCHIVE_THUMBNAIL_EXTENSIONS"); v != "" {
		cfg.Thumbnail.Extensions = strings.Split(v, ",")
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"ARCHIVE_PAGE_SIZE_TAGS", &cfg.PageSize.Tags},
		{"ARCHIVE_PAGE_SIZE_LEADERBOARDS", &cfg.PageSize.Leaderboards},
		{"ARCHIVE_PAGE_SIZE_ALBUMS", &cfg.PageSize.Albums},
		{"ARCHIVE_THUMBNAIL_WIDTH", &cfg.Thumbnail.Width},
		{"ARCHIVE_THUMBNAIL_HEIGHT", &cfg.Thumbnail.Height},
	}
	for _, e := range ints {
		if v := os.Getenv(e.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.env, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{"ARCHIVE_OVERWRITE_PHOTOS", &cfg.Overwrite.Photos},
		{"ARCHIVE_OVERWRITE_THUMBNAILS", &cfg.Overwrite.Thumbnails},
		{"ARCHIVE_OVERWRITE_PROFILE", &cfg.Overwrite.Profile},
		{"ARCHIVE_OVERWRITE_ALBUMS", &cfg.Overwrite.Albums},
		{"ARCHIVE_OVERWRITE_TAGS", &cfg.Overwrite.Tags},
		{"ARCHIVE_OVERWRITE_LEADERBOARDS", &cfg.Overwrite.Leaderboards},
	}
	for _, e := range bools {
		if v := os.Getenv(e.env); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.env, err)
			}
			*e.dst = b
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Root == "" {
		return errors.New("export directory not specified")
	}
	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return fmt.Errorf("invalid thumbnail size %dx%d", c.Thumbnail.Width, c.Thumbnail.Height)
	}
	for i, ext := range c.Thumbnail.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Thumbnail.Extensions[i] = ext
	}
	return nil
}

// Path resolves a configured path against the export root.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
