// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package thumbnail generates fixed-size cover thumbnails of images.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/dsnet/generate-archive/internal/output"
)

// ErrUnsupported reports an image whose extension cannot be thumbnailed.
var ErrUnsupported = errors.New("unsupported image format")

// Generator creates thumbnails of a single size.
type Generator struct {
	Width, Height int
	// Extensions are the file extensions to thumbnail, e.g., ".jpg".
	// They are matched case-insensitively.
	Extensions []string
}

// Supported reports whether the file extension of name can be thumbnailed.
func (g *Generator) Supported(name string) bool {
	ext := filepath.Ext(name)
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return false
	}
	for _, e := range g.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Generate writes a thumbnail of src to dst in the format of src.
// An existing dst is left alone unless overwrite is set.
func (g *Generator) Generate(src, dst string, overwrite bool) (output.Result, error) {
	if !g.Supported(src) {
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(src))
	}
	format, err := imaging.FormatFromFilename(src)
	if err != nil {
		return 0, err
	}
	if output.Exists(dst) && !overwrite {
		return output.Skipped, nil
	}

	// Read and decode the image.
	b, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return 0, err
	}

	// Crop and resize the image.
	if format == imaging.JPEG {
		if orient, err := orientation(b); err == nil && orient != nil {
			img = orient(img)
		}
	}
	img = g.Cover(img)

	// Encode and write the image.
	return output.Create(dst, overwrite, func(w io.Writer) error {
		return imaging.Encode(w, img, format)
	})
}

// Cover scales img to fill the thumbnail size, cropping the excess
// while keeping the image centered.
func (g *Generator) Cover(img image.Image) image.Image {
	return imaging.Fill(img, g.Width, g.Height, imaging.Center, imaging.Lanczos)
}

// orientation returns a function that rotates an image according to its
// EXIF orientation. It returns nil if the image has no orientation.
func orientation(b []byte) (func(image.Image) image.Image, error) {
	x, err := exif.Decode(bytes.NewReader(b))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	orient, err := x.Get(exif.Orientation)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return nil, nil
		}
		return nil, err
	}
	switch orient.String() {
	case "2":
		return func(img image.Image) image.Image { return imaging.FlipH(img) }, nil
	case "3":
		return func(img image.Image) image.Image { return imaging.Rotate180(img) }, nil
	case "4":
		return func(img image.Image) image.Image { return imaging.Rotate180(imaging.FlipH(img)) }, nil
	case "5":
		return func(img image.Image) image.Image { return imaging.Rotate270(imaging.FlipV(img)) }, nil
	case "6":
		return func(img image.Image) image.Image { return imaging.Rotate270(img) }, nil
	case "7":
		return func(img image.Image) image.Image { return imaging.Rotate90(imaging.FlipV(img)) }, nil
	case "8":
		return func(img image.Image) image.Image { return imaging.Rotate90(img) }, nil
	default:
		return nil, nil
	}
}
