// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const (
	profileFile = "account_profile.json"
	albumsFile  = "albums.json"
)

// Profile is the account owner's profile and aggregate statistics.
type Profile struct {
	RealName    string
	NSID        string
	City        string
	Hometown    string
	Description string

	Faves     int
	Comments  int
	Views     int
	TagsCount int
}

// Album is a single album from the album manifest.
type Album struct {
	ID          string
	Title       string
	Description string
	URL         string
	PhotoCount  int
	Photos      []string // photo ids; "0" is a placeholder
	CoverPhoto  string   // photo id
}

type jsonProfile struct {
	RealName    string `json:"real_name"`
	NSID        string `json:"nsid"`
	City        string `json:"city"`
	Hometown    string `json:"hometown"`
	Description string `json:"description"`
	Stats       struct {
		FavesCount    count `json:"faves_count"`
		TagsCount     count `json:"tags_count"`
		CommentsCount struct {
			Photos count `json:"photos"`
		} `json:"comments_count"`
		ViewCounts struct {
			Total count `json:"total"`
		} `json:"view_counts"`
	} `json:"stats"`
}

type jsonAlbum struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PhotoCount  count    `json:"photo_count"`
	Photos      []string `json:"photos"`
	CoverPhoto  string   `json:"cover_photo"`
}

// LoadProfile reads the account profile manifest from dir.
func LoadProfile(dir string) (*Profile, error) {
	var raw jsonProfile
	if err := readManifest(filepath.Join(dir, profileFile), &raw); err != nil {
		return nil, err
	}
	return &Profile{
		RealName:    raw.RealName,
		NSID:        raw.NSID,
		City:        raw.City,
		Hometown:    raw.Hometown,
		Description: raw.Description,
		Faves:       raw.Stats.FavesCount.n,
		Comments:    raw.Stats.CommentsCount.Photos.n,
		Views:       raw.Stats.ViewCounts.Total.n,
		TagsCount:   raw.Stats.TagsCount.n,
	}, nil
}

// LoadAlbums reads the album manifest from dir, sorted by title.
func LoadAlbums(dir string) ([]*Album, error) {
	var raw struct {
		Albums []jsonAlbum `json:"albums"`
	}
	if err := readManifest(filepath.Join(dir, albumsFile), &raw); err != nil {
		return nil, err
	}
	albums := make([]*Album, 0, len(raw.Albums))
	for _, a := range raw.Albums {
		n := a.PhotoCount.n
		if !a.PhotoCount.valid {
			n = len(a.Photos)
		}
		albums = append(albums, &Album{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PhotoCount:  n,
			Photos:      a.Photos,
			CoverPhoto:  IDFromURL(a.CoverPhoto),
		})
	}
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].Title < albums[j].Title
	})
	return albums, nil
}

// IDFromURL returns the last path segment of a photo URL.
func IDFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	if u == "" {
		return ""
	}
	return path.Base(u)
}

func readManifest(fp string, v any) error {
	b, err := os.ReadFile(fp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnparseable, fp, err)
	}
	return nil
}
