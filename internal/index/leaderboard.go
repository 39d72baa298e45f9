// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package index

import (
	"fmt"

	"github.com/dsnet/generate-archive/internal/export"
)

// Leaderboard is one of the count-keyed indexes.
type Leaderboard int

const (
	Favorites Leaderboard = iota
	Views
	Comments
)

// Leaderboards lists every leaderboard in output order.
var Leaderboards = []Leaderboard{Favorites, Views, Comments}

var leaderboardNames = [...]struct {
	name    string // singular noun, e.g., "fav"
	heading string
}{
	Favorites: {"fav", "Most faved"},
	Views:     {"view", "Most viewed"},
	Comments:  {"comment", "Most commented"},
}

// Name is the singular label, e.g., "fav".
func (lb Leaderboard) Name() string { return leaderboardNames[lb].name }

// Dir is the URL path prefix of the leaderboard's pages, e.g., "favs".
// Index pages are named Dir()+"-<page>.html" and per-count pages
// Dir()+"/<count>.html".
func (lb Leaderboard) Dir() string { return leaderboardNames[lb].name + "s" }

// Heading is the title of the leaderboard index, e.g., "Most faved".
func (lb Leaderboard) Heading() string { return leaderboardNames[lb].heading }

// Title describes the photos of a single count, e.g., "Photos with 5 favs".
func (lb Leaderboard) Title(n int) string {
	return fmt.Sprintf("Photos with %d %s", n, lb.Dir())
}

// Value returns the count of p this leaderboard groups by.
func (lb Leaderboard) Value(p *export.Photo) int {
	switch lb {
	case Favorites:
		return p.Favorites
	case Views:
		return p.Views
	case Comments:
		return p.CommentCount
	default:
		panic("index: invalid leaderboard")
	}
}

func (lb Leaderboard) String() string { return lb.Dir() }
