// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package paginate splits sorted listings into fixed-size pages.
package paginate

// Default page sizes.
const (
	TagsPerPage         = 200
	LeaderboardsPerPage = 100
	AlbumsPerPage       = 100
)

// GridThreshold is the number of photos above which a listing is shown as
// a thumbnail grid rather than as stacked images.
const GridThreshold = 30

// Page is a single page of a listing.
type Page[E any] struct {
	// Number is the 1-based page number.
	Number int
	// Total is the number of pages in the listing.
	Total int
	// Entries are the entries on this page in listing order.
	Entries []E
}

// Len is the number of entries on the page.
func (p Page[E]) Len() int { return len(p.Entries) }

// Numbers returns the page numbers 1 through Total.
func (p Page[E]) Numbers() []int {
	ns := make([]int, p.Total)
	for i := range ns {
		ns[i] = i + 1
	}
	return ns
}

// Paginate splits entries into pages of size entries each, in order.
// The last page may be shorter. No pages are returned for no entries.
// A non-positive size places every entry on a single page.
func Paginate[E any](entries []E, size int) []Page[E] {
	if len(entries) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(entries)
	}
	total := (len(entries) + size - 1) / size
	pages := make([]Page[E], 0, total)
	for i := 0; i < len(entries); i += size {
		end := min(i+size, len(entries))
		pages = append(pages, Page[E]{
			Number:  len(pages) + 1,
			Total:   total,
			Entries: entries[i:end:end],
		})
	}
	return pages
}
