// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package archive builds a static HTML archive from a photo-service export.
package archive

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dsnet/generate-archive/internal/cache"
	"github.com/dsnet/generate-archive/internal/config"
	"github.com/dsnet/generate-archive/internal/export"
	"github.com/dsnet/generate-archive/internal/imagemap"
	"github.com/dsnet/generate-archive/internal/index"
	"github.com/dsnet/generate-archive/internal/metrics"
	"github.com/dsnet/generate-archive/internal/output"
	"github.com/dsnet/generate-archive/internal/paginate"
	"github.com/dsnet/generate-archive/internal/render"
	"github.com/dsnet/generate-archive/internal/thumbnail"
)

// Kinds of output file, as counted in metrics.
const (
	kindProfile     = "profile"
	kindPhoto       = "photo"
	kindAlbum       = "album"
	kindTag         = "tag"
	kindLeaderboard = "leaderboard"
	kindThumbnail   = "thumbnail"
	kindLink        = "link"
)

// Options control a single build.
type Options struct {
	// FromCache loads the indexes and image map from the cache
	// instead of reading the photo records and image directory.
	// Photo pages are not regenerated.
	FromCache bool
}

// Builder builds an archive. It is not safe for concurrent use.
type Builder struct {
	cfg     *config.Config
	cache   *cache.Store
	metrics *metrics.Metrics
	log     *slog.Logger
	thumbs  *thumbnail.Generator
}

// New returns a Builder for cfg that caches derived indexes in store.
func New(cfg *config.Config, store *cache.Store, m *metrics.Metrics, log *slog.Logger) *Builder {
	return &Builder{
		cfg:     cfg,
		cache:   store,
		metrics: m,
		log:     log,
		thumbs: &thumbnail.Generator{
			Width:      cfg.Thumbnail.Width,
			Height:     cfg.Thumbnail.Height,
			Extensions: cfg.Thumbnail.Extensions,
		},
	}
}

func (b *Builder) path(elems ...string) string {
	return filepath.Join(append([]string{b.cfg.Path(elems[0])}, elems[1:]...)...)
}

func (b *Builder) htmlPath(elems ...string) string {
	return b.path(append([]string{b.cfg.Paths.HTML}, elems...)...)
}

// Run builds the archive. Any returned error is fatal; problems with
// individual records or assets are logged and counted instead.
func (b *Builder) Run(opts Options) error {
	start := time.Now()

	// Create the output tree.
	dirs := []string{
		b.path(b.cfg.Paths.Cache),
		b.path(b.cfg.Paths.Thumbnails),
		b.path(b.cfg.Paths.Albums),
		b.htmlPath(),
		b.htmlPath("images"),
		b.htmlPath("albums"),
		b.htmlPath("tags"),
	}
	for _, lb := range index.Leaderboards {
		dirs = append(dirs, b.htmlPath(lb.Dir()))
	}
	if err := output.MkdirAll(dirs...); err != nil {
		return fmt.Errorf("creating output directories: %w", err)
	}

	// Resolve photo ids to images.
	images, err := b.imageMap(opts.FromCache)
	if err != nil {
		return err
	}

	profile, err := export.LoadProfile(b.path(b.cfg.Paths.JSON))
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	albums, err := export.LoadAlbums(b.path(b.cfg.Paths.JSON))
	if err != nil {
		return fmt.Errorf("loading albums: %w", err)
	}
	albums = b.validAlbums(albums)
	r := render.New(images, profile.NSID)

	b.createThumbnails(images)
	b.linkAlbums(albums, images)
	if err := b.writeProfile(r, profile, len(albums)); err != nil {
		return err
	}
	if err := b.writeAlbums(r, albums); err != nil {
		return err
	}

	// Index the photo records.
	var ix *index.Indexes
	if opts.FromCache {
		if ix, err = b.cache.LoadIndexes(); err != nil {
			return fmt.Errorf("loading cached indexes: %w", err)
		}
	} else {
		if ix, err = b.writePhotos(r); err != nil {
			return err
		}
		if err := b.cache.SaveIndexes(ix); err != nil {
			return fmt.Errorf("saving index cache: %w", err)
		}
	}
	ix.Tags = ix.Tags.Fold()
	for _, id := range ix.MissingAssets(images) {
		b.log.Warn("no image for photo", "photo_id", id)
		b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonMissingImage).Inc()
	}

	if err := b.writeTags(r, ix.Tags); err != nil {
		return err
	}
	for _, lb := range index.Leaderboards {
		if err := b.writeLeaderboard(r, lb, ix.Count(lb)); err != nil {
			return err
		}
	}

	b.metrics.LastRunTimestamp.SetToCurrentTime()
	if s, err := b.metrics.Summary(); err == nil {
		b.log.Info("done",
			"records", s.Indexed,
			"partial_records", s.Partial,
			"skipped_assets", s.SkippedAssets,
			"written", s.Written,
			"unchanged", s.Unchanged,
			"skipped", s.Skipped,
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
	if fp := b.cfg.Metrics.Textfile; fp != "" {
		if err := b.metrics.WriteTextfile(b.cfg.Path(fp)); err != nil {
			b.log.Error("cannot write metrics", "file", fp, "error", err)
		}
	}
	return nil
}

func (b *Builder) imageMap(fromCache bool) (imagemap.Map, error) {
	if fromCache {
		m, err := b.cache.LoadImageMap()
		if err != nil {
			return nil, fmt.Errorf("loading cached image map: %w", err)
		}
		return m, nil
	}
	b.log.Info("mapping image ids to images")
	m, unmatched, err := imagemap.LocateDir(b.path(b.cfg.Paths.Images))
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	for _, name := range unmatched {
		b.log.Warn("cannot get photo id from image name, skipping", "file", filepath.Join(b.cfg.Paths.Images, name))
		b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonUnmatchedName).Inc()
	}
	if err := b.cache.SaveImageMap(m); err != nil {
		return nil, fmt.Errorf("saving image map: %w", err)
	}
	return m, nil
}

// record counts a file result, logging and counting write errors as
// skipped assets.
func (b *Builder) record(kind, fp string, res output.Result, err error) {
	if err != nil {
		b.log.Error("cannot write file", "kind", kind, "file", fp, "error", err)
		b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonWrite).Inc()
		return
	}
	b.log.Debug("file "+res.String(), "kind", kind, "file", fp)
	b.metrics.FilesTotal.WithLabelValues(kind, res.String()).Inc()
}

func (b *Builder) write(kind, fp string, page []byte, err error, overwrite bool) error {
	if err != nil {
		return fmt.Errorf("rendering %s: %w", fp, err)
	}
	res, err := output.WriteFile(fp, page, overwrite)
	b.record(kind, fp, res, err)
	return nil
}

func (b *Builder) createThumbnails(images imagemap.Map) {
	for _, name := range images.Files() {
		src := b.path(b.cfg.Paths.Images, name)
		dst := b.path(b.cfg.Paths.Thumbnails, name)
		if !b.thumbs.Supported(name) {
			b.log.Info("unsupported image format, skipping thumbnail", "file", src)
			b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonUnsupported).Inc()
			continue
		}
		res, err := b.thumbs.Generate(src, dst, b.cfg.Overwrite.Thumbnails)
		if err != nil {
			b.log.Error("cannot create thumbnail", "file", src, "error", err)
			b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonThumbnail).Inc()
			continue
		}
		b.record(kindThumbnail, dst, res, nil)
	}
}

// linkAlbums creates a directory per album with a link to each of
// its images under a readable name.
func (b *Builder) linkAlbums(albums []*export.Album, images imagemap.Map) {
	for _, a := range albums {
		dir := b.path(b.cfg.Paths.Albums, albumDir(a.Title))
		if err := output.MkdirAll(dir); err != nil {
			b.log.Error("cannot create album directory", "album", a.ID, "dir", dir, "error", err)
			b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonLink).Inc()
			continue
		}
		for _, id := range a.Photos {
			if id == "0" {
				continue
			}
			name, ok := images.Lookup(id)
			if !ok {
				continue // reported with the indexes
			}
			nice, ok := imagemap.NiceName(name)
			if !ok {
				continue
			}
			dst := filepath.Join(dir, nice)
			res, err := output.Symlink(b.path(b.cfg.Paths.Images, name), dst)
			if err != nil {
				b.log.Error("cannot link album image", "album", a.ID, "photo_id", id, "file", dst, "error", err)
				b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonLink).Inc()
				continue
			}
			b.record(kindLink, dst, res, nil)
		}
	}
}

// albumDir is the directory name of an album, which is its title
// made safe for use as a single path element.
func albumDir(title string) string {
	name := strings.ReplaceAll(title, "/", "-")
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

// validAlbums drops albums whose id cannot name a page.
func (b *Builder) validAlbums(albums []*export.Album) []*export.Album {
	var out []*export.Album
	for _, a := range albums {
		if !export.ValidID(a.ID) {
			b.log.Warn("invalid album id, skipping", "album", a.ID, "title", a.Title)
			b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonInvalidID).Inc()
			continue
		}
		out = append(out, a)
	}
	return out
}

func (b *Builder) writeProfile(r *render.Renderer, p *export.Profile, numAlbums int) error {
	page, err := r.Profile(p, numAlbums)
	return b.write(kindProfile, b.htmlPath("index.html"), page, err, b.cfg.Overwrite.Profile)
}

func (b *Builder) writeAlbums(r *render.Renderer, albums []*export.Album) error {
	overwrite := b.cfg.Overwrite.Albums
	for _, pg := range paginate.Paginate(albums, b.cfg.PageSize.Albums) {
		page, missing, err := r.AlbumIndex(pg)
		for _, id := range missing {
			b.log.Warn("no image for album cover", "album", id)
			b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonCoverMissing).Inc()
		}
		if err := b.write(kindAlbum, b.htmlPath(render.IndexFile("albums", pg.Number)), page, err, overwrite); err != nil {
			return err
		}
		for _, a := range pg.Entries {
			page, err := r.Album(a, pg.Number)
			if err := b.write(kindAlbum, b.htmlPath("albums", a.ID+".html"), page, err, overwrite); err != nil {
				return err
			}
		}
	}
	return nil
}

// writePhotos writes a page per photo record and indexes the records.
func (b *Builder) writePhotos(r *render.Renderer) (*index.Indexes, error) {
	photos, err := export.LoadPhotos(b.path(b.cfg.Paths.JSON))
	if err != nil {
		return nil, fmt.Errorf("loading photo records: %w", err)
	}
	b.log.Info("processing photo records", "count", len(photos))

	ix := index.New()
	lastPrint := time.Now()
	for i, p := range photos {
		// Print progress.
		if now := time.Now(); now.Sub(lastPrint) > time.Second {
			b.log.Info("progress", "processed", i, "total", len(photos))
			lastPrint = now
		}

		if !p.Complete() {
			b.log.Warn("incomplete photo record, skipping", "photo_id", p.ID, "file", p.File, "missing", p.Missing)
			b.metrics.RecordsTotal.WithLabelValues("partial").Inc()
			continue
		}
		ix.Add(p)
		b.metrics.RecordsTotal.WithLabelValues("indexed").Inc()

		page, err := r.Photo(p)
		if err := b.write(kindPhoto, b.htmlPath("images", p.ID+".html"), page, err, b.cfg.Overwrite.Photos); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// writeTags writes the tag index pages and a page per tag.
func (b *Builder) writeTags(r *render.Renderer, tags index.TagIndex) error {
	entries, dropped := distinctFiles(tags.Sorted(), render.TagFile)
	for _, e := range dropped {
		b.log.Warn("tag page name already taken, skipping", "tag", e.Key, "file", render.TagFile(e.Key))
		b.metrics.AssetsSkippedTotal.WithLabelValues(metrics.ReasonTagCollision).Inc()
	}

	overwrite := b.cfg.Overwrite.Tags
	for _, pg := range paginate.Paginate(entries, b.cfg.PageSize.Tags) {
		page, err := r.TagIndex(pg)
		if err := b.write(kindTag, b.htmlPath(render.IndexFile("tags", pg.Number)), page, err, overwrite); err != nil {
			return err
		}
		for _, e := range pg.Entries {
			page, err := r.Tag(e, pg.Number)
			if err := b.write(kindTag, b.htmlPath("tags", render.TagFile(e.Key)), page, err, overwrite); err != nil {
				return err
			}
		}
	}
	return nil
}

// distinctFiles keeps the first entry for each output file name,
// preserving order, and returns the entries whose file was taken.
func distinctFiles(entries []index.Entry[string], file func(string) string) (kept, dropped []index.Entry[string]) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		f := file(e.Key)
		if seen[f] {
			dropped = append(dropped, e)
			continue
		}
		seen[f] = true
		kept = append(kept, e)
	}
	return kept, dropped
}

// writeLeaderboard writes the index pages of a leaderboard and a page
// per distinct count.
func (b *Builder) writeLeaderboard(r *render.Renderer, lb index.Leaderboard, counts index.CountIndex) error {
	overwrite := b.cfg.Overwrite.Leaderboards
	for _, pg := range paginate.Paginate(counts.Sorted(), b.cfg.PageSize.Leaderboards) {
		page, err := r.LeaderboardIndex(lb, pg)
		if err := b.write(kindLeaderboard, b.htmlPath(render.IndexFile(lb.Dir(), pg.Number)), page, err, overwrite); err != nil {
			return err
		}
		for _, e := range pg.Entries {
			page, err := r.Leaderboard(lb, e, pg.Number)
			if err := b.write(kindLeaderboard, b.htmlPath(lb.Dir(), strconv.Itoa(e.Key)+".html"), page, err, overwrite); err != nil {
				return err
			}
		}
	}
	return nil
}
