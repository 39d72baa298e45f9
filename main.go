// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command generate-archive turns a photo-service account export into a
// static HTML archive that can be browsed offline.
//
// The export directory is expected to contain:
//
//	json/     account_profile.json, albums.json, and photo_ID.json records
//	images/   the original images
//
// The archive is written to html/, with thumbnails in thumbnails/,
// album directories of links in albums/, derived indexes in cache/,
// and a log of each build in logs/.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dsnet/generate-archive/internal/archive"
	"github.com/dsnet/generate-archive/internal/cache"
	"github.com/dsnet/generate-archive/internal/config"
	"github.com/dsnet/generate-archive/internal/logger"
	"github.com/dsnet/generate-archive/internal/metrics"
)

var (
	configFile = flag.String("config", "", "path to a YAML configuration file")
	fromCache  = flag.Bool("from-cache", false, "build from the cached indexes instead of the photo records")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, or error")
)

func main() {
	// Process command line flags.
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTION]... DIR\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(flag.CommandLine.Output(), "export directory not specified\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Clean(flag.Arg(0)), *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logPath, closeLog, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Path(cfg.Paths.Logs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	slog.Info("building archive", "root", cfg.Root, "from_cache", *fromCache)

	b := archive.New(cfg, cache.New(cfg.Path(cfg.Paths.Cache)), metrics.New(), logger.WithComponent("archive"))
	if err := b.Run(archive.Options{FromCache: *fromCache}); err != nil {
		slog.Error("build failed", "error", err)
		fmt.Fprintf(os.Stderr, "build failed; see %s for details\n", logPath)
		closeLog()
		os.Exit(1)
	}
	closeLog()
}
