// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package export decodes the JSON files of a photo-service account export.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable reports a JSON file that could not be decoded at all.
var ErrUnparseable = errors.New("unparseable export file")

// Photo is the metadata exported for a single photo.
//
// A Photo that lacks any field needed for indexing is a partial record:
// the names of the absent JSON fields are listed in Missing.
type Photo struct {
	ID           string
	Name         string
	Description  string
	DateTaken    string // e.g., "2010-05-04 12:00:00"
	PhotoPage    string
	License      string
	Privacy      string
	Tags         []string // original case, export order
	Favorites    int
	Views        int
	CommentCount int
	Comments     []Comment
	Albums       []AlbumRef
	Groups       []Group
	People       []string
	Geo          *Geo
	Exif         []ExifField

	// File is the path of the JSON file the photo was decoded from.
	File string
	// Missing lists indexed JSON fields absent from the record.
	Missing []string
}

// Complete reports whether every indexed field was present.
func (p *Photo) Complete() bool { return len(p.Missing) == 0 }

// TakenOn formats DateTaken as "January 2, 2006".
func (p *Photo) TakenOn() string { return NiceDate(p.DateTaken) }

// Comment is a comment left on a photo.
type Comment struct {
	User    string
	Date    string
	Comment string
}

// AlbumRef is an album a photo belongs to.
type AlbumRef struct {
	ID    string
	Title string
}

// Group is a group pool a photo was shared to.
type Group struct {
	Name string
	URL  string
}

// Geo is the location a photo was taken at.
type Geo struct {
	Latitude  float64
	Longitude float64
	Accuracy  int
}

// ExifField is a single EXIF entry. Value is the indented JSON
// representation of the exported value.
type ExifField struct {
	Name  string
	Value string
}

// count is a non-negative integer that the export writes either as a JSON
// number or as a quoted number.
type count struct {
	n     int
	valid bool
}

func (c *count) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return nil // left invalid; reported as a missing field
	}
	c.n, c.valid = n, true
	return nil
}

// text is a string field. Values of any other JSON type are dropped.
type text struct {
	s string
}

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		t.s = s
	}
	return nil
}

type jsonTag struct {
	Tag text `json:"tag"`
}

type jsonComment struct {
	User    text `json:"user"`
	Date    text `json:"date"`
	Comment text `json:"comment"`
}

type jsonAlbumRef struct {
	ID    text `json:"id"`
	Title text `json:"title"`
}

type jsonGroup struct {
	Name text `json:"name"`
	URL  text `json:"url"`
}

type jsonPerson struct {
	Person text `json:"person"`
}

type jsonGeo struct {
	Latitude  json.Number `json:"latitude"`
	Longitude json.Number `json:"longitude"`
	Accuracy  json.Number `json:"accuracy"`
}

// jsonPhoto is the schema of a photo record. Every field decodes
// leniently so that only a file that is not a JSON object fails.
type jsonPhoto struct {
	ID            text            `json:"id"`
	Name          text            `json:"name"`
	Description   text            `json:"description"`
	DateTaken     text            `json:"date_taken"`
	PhotoPage     text            `json:"photopage"`
	License       text            `json:"license"`
	Privacy       text            `json:"privacy"`
	Tags          json.RawMessage `json:"tags"`
	CountFaves    count           `json:"count_faves"`
	CountViews    count           `json:"count_views"`
	CountComments count           `json:"count_comments"`
	Comments      json.RawMessage `json:"comments"`
	Albums        json.RawMessage `json:"albums"`
	Groups        json.RawMessage `json:"groups"`
	People        json.RawMessage `json:"people"`
	Geo           json.RawMessage `json:"geo"`
	Exif          json.RawMessage `json:"exif"`
}

// ValidID reports whether id can name an output file,
// which requires it to be a single path element.
func ValidID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// DecodePhoto decodes a single photo record.
// It only fails if b is not a JSON object. Indexed fields that are absent
// or of the wrong type are listed in Missing; other fields of the wrong
// type are dropped.
func DecodePhoto(b []byte) (*Photo, error) {
	var raw jsonPhoto
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}

	p := &Photo{
		ID:           strings.TrimSpace(raw.ID.s),
		Name:         raw.Name.s,
		Description:  raw.Description.s,
		DateTaken:    raw.DateTaken.s,
		PhotoPage:    raw.PhotoPage.s,
		License:      raw.License.s,
		Privacy:      raw.Privacy.s,
		Favorites:    raw.CountFaves.n,
		Views:        raw.CountViews.n,
		CommentCount: raw.CountComments.n,
	}
	if !ValidID(p.ID) {
		p.Missing = append(p.Missing, "id")
	}
	if tags, ok := decodeList[jsonTag](raw.Tags); !ok {
		p.Missing = append(p.Missing, "tags")
	} else {
		for _, t := range tags {
			if t.Tag.s != "" {
				p.Tags = append(p.Tags, t.Tag.s)
			}
		}
	}
	if !raw.CountFaves.valid {
		p.Missing = append(p.Missing, "count_faves")
	}
	if !raw.CountViews.valid {
		p.Missing = append(p.Missing, "count_views")
	}
	if !raw.CountComments.valid {
		p.Missing = append(p.Missing, "count_comments")
	}

	comments, _ := decodeList[jsonComment](raw.Comments)
	for _, c := range comments {
		p.Comments = append(p.Comments, Comment{User: c.User.s, Date: c.Date.s, Comment: c.Comment.s})
	}
	albums, _ := decodeList[jsonAlbumRef](raw.Albums)
	for _, a := range albums {
		if ValidID(a.ID.s) {
			p.Albums = append(p.Albums, AlbumRef{ID: a.ID.s, Title: a.Title.s})
		}
	}
	groups, _ := decodeList[jsonGroup](raw.Groups)
	for _, g := range groups {
		p.Groups = append(p.Groups, Group{Name: g.Name.s, URL: g.URL.s})
	}
	p.People = decodePeople(raw.People)
	p.Geo = decodeGeo(raw.Geo)
	p.Exif = decodeExif(raw.Exif)
	return p, nil
}

// decodeList decodes a JSON array element by element, dropping elements
// that do not decode. It reports false if b is absent, null, or not an array.
func decodeList[T any](b json.RawMessage) ([]T, bool) {
	var elems []json.RawMessage
	if len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null")) || json.Unmarshal(b, &elems) != nil {
		return nil, false
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		var v T
		if json.Unmarshal(e, &v) == nil {
			out = append(out, v)
		}
	}
	return out, true
}

// The remaining fields are best-effort: the export is inconsistent about
// whether they are objects, lists, or absent.

func decodePeople(b json.RawMessage) []string {
	people, _ := decodeList[jsonPerson](b)
	var out []string
	for _, p := range people {
		if p.Person.s != "" {
			out = append(out, p.Person.s)
		}
	}
	return out
}

func decodeGeo(b json.RawMessage) *Geo {
	if len(b) == 0 {
		return nil
	}
	var g jsonGeo
	if err := json.Unmarshal(b, &g); err != nil {
		var gs []jsonGeo
		if err := json.Unmarshal(b, &gs); err != nil || len(gs) == 0 {
			return nil
		}
		g = gs[0]
	}
	lat, err1 := g.Latitude.Float64()
	lng, err2 := g.Longitude.Float64()
	if err1 != nil || err2 != nil {
		return nil
	}
	acc, _ := g.Accuracy.Int64()
	return &Geo{Latitude: lat, Longitude: lng, Accuracy: int(acc)}
}

func decodeExif(b json.RawMessage) []ExifField {
	var m map[string]json.RawMessage
	if len(b) == 0 || json.Unmarshal(b, &m) != nil {
		return nil
	}
	var out []ExifField
	for k, v := range m {
		var bb bytes.Buffer
		if err := json.Indent(&bb, v, "", "    "); err != nil {
			bb.Reset()
			bb.Write(v)
		}
		out = append(out, ExifField{Name: k, Value: bb.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsPhotoFile reports whether name looks like an exported photo record.
func IsPhotoFile(name string) bool {
	return strings.Contains(name, "photo_") && strings.EqualFold(filepath.Ext(name), ".json")
}

// LoadPhotos reads every photo record in dir in lexical filename order.
// Partial records are returned as well; callers check Photo.Complete.
// A record that is not a JSON object aborts loading.
func LoadPhotos(dir string) ([]*Photo, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, de := range des {
		if !de.IsDir() && IsPhotoFile(de.Name()) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	photos := make([]*Photo, 0, len(names))
	for _, name := range names {
		fp := filepath.Join(dir, name)
		b, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		p, err := DecodePhoto(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnparseable, fp, err)
		}
		p.File = fp
		photos = append(photos, p)
	}
	return photos, nil
}

// NiceDate formats an export timestamp as "January 2, 2006".
// Unrecognized timestamps are returned unchanged.
func NiceDate(s string) string {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15: 04: 05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}
