// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package render formats the pages of the archive as HTML.
//
// Pages are laid out in a fixed tree relative to the html directory:
//
//	index.html                profile
//	albums-N.html             album index pages
//	albums/ID.html            one page per album
//	images/ID.html            one page per photo
//	tags-N.html, tags/S.html  tag index pages and one page per tag
//	favs-N.html, favs/C.html  leaderboards (likewise views and comments)
//
// Images and thumbnails are referenced in sibling directories of html.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dsnet/generate-archive/internal/export"
	"github.com/dsnet/generate-archive/internal/imagemap"
	"github.com/dsnet/generate-archive/internal/index"
	"github.com/dsnet/generate-archive/internal/paginate"
)

const (
	serviceURL = "https://www.flickr.com"
	gridWidth  = 5
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Renderer formats pages. Photos are resolved to image files with an
// image map; photos without an image are rendered as placeholders.
type Renderer struct {
	images imagemap.Map
	nsid   string // account id, for links back to the photo service
}

// New returns a Renderer.
func New(images imagemap.Map, nsid string) *Renderer {
	return &Renderer{images: images, nsid: nsid}
}

var dashes = strings.NewReplacer("/", "-", " ", "-")

// TagSlug is the URL path element of a tag's page.
// Slashes and spaces become dashes. A tag changed by that is suffixed
// with a hash of the tag, so distinct tags never share a page.
func TagSlug(tag string) string {
	slug := dashes.Replace(tag)
	if slug != tag {
		slug += fmt.Sprintf("-%08x", uint32(xxhash.Sum64String(tag)))
	}
	return slug
}

// TagFile is the name of a tag's page within the tags directory.
func TagFile(tag string) string { return TagSlug(tag) + ".html" }

// tagHref is the link to a tag's page relative to the html directory.
func tagHref(tag string) string { return "tags/" + url.PathEscape(TagFile(tag)) }

// IndexFile is the name of page n of an index, e.g., "tags-2.html".
func IndexFile(name string, n int) string { return fmt.Sprintf("%s-%d.html", name, n) }

type link struct {
	Href string
	Text string
}

type tile struct {
	Href  string
	Thumb string // empty for a placeholder
	Label string
}

type listing struct {
	Count int
	Grid  [][]tile
	Stack []tile
}

type groupPage struct {
	Title       string
	TitleURL    string
	Crumbs      []link
	Description template.HTML
	Listing     listing
}

type indexPage struct {
	Title  string
	Crumbs []link
	Pages  []link
	Rows   [][]tile
}

func execute(name string, data any) ([]byte, error) {
	var bb bytes.Buffer
	if err := templates.ExecuteTemplate(&bb, name, data); err != nil {
		return nil, err
	}
	return bb.Bytes(), nil
}

func rows(tiles []tile) [][]tile {
	var rs [][]tile
	for len(tiles) > 0 {
		n := min(gridWidth, len(tiles))
		rs = append(rs, tiles[:n])
		tiles = tiles[n:]
	}
	return rs
}

// thumb is the thumbnail of a photo relative to the html directory.
func (r *Renderer) thumb(id string) string {
	if name, ok := r.images.Lookup(id); ok {
		return "../thumbnails/" + name
	}
	return ""
}

// image is the full-size image of a photo relative to the html directory.
func (r *Renderer) image(id string) string {
	if name, ok := r.images.Lookup(id); ok {
		return "../images/" + name
	}
	return ""
}

// nested makes a path relative to the html directory relative to a page
// one directory below it.
func nested(p string) string {
	if p == "" {
		return ""
	}
	return "../" + p
}

// photos lists photos on a page one directory below the html directory.
// Long listings are shown as a grid of thumbnails.
func (r *Renderer) photos(ids []string) listing {
	l := listing{Count: len(ids)}
	var tiles []tile
	for _, id := range ids {
		t := tile{Href: "../images/" + id + ".html", Label: id}
		if len(ids) > paginate.GridThreshold {
			t.Thumb = nested(r.thumb(id))
		} else {
			t.Thumb = nested(r.image(id))
		}
		tiles = append(tiles, t)
	}
	if len(ids) > paginate.GridThreshold {
		l.Grid = rows(tiles)
	} else {
		l.Stack = tiles
	}
	return l
}

func pager(name string, total int) []link {
	var ls []link
	for n := 1; n <= total; n++ {
		ls = append(ls, link{Href: IndexFile(name, n), Text: strconv.Itoa(n)})
	}
	return ls
}

func (r *Renderer) searchURL(tag string) string {
	if r.nsid == "" {
		return ""
	}
	q := url.Values{}
	q.Set("sort", "date-taken-desc")
	q.Set("safe_search", "1")
	q.Set("tags", tag)
	q.Set("user_id", r.nsid)
	q.Set("view_all", "1")
	return serviceURL + "/search/?" + q.Encode()
}

// Profile formats the home page.
func (r *Renderer) Profile(p *export.Profile, numAlbums int) ([]byte, error) {
	desc := template.HTMLEscapeString(p.Description)
	return execute("profile", struct {
		Name, City, Hometown                 string
		Description                          template.HTML
		Albums, Tags, Faves, Comments, Views string
	}{
		Name:        p.RealName,
		City:        p.City,
		Hometown:    p.Hometown,
		Description: template.HTML(strings.ReplaceAll(desc, "\n", "<br>")),
		Albums:      thousands(numAlbums),
		Tags:        thousands(p.TagsCount),
		Faves:       thousands(p.Faves),
		Comments:    thousands(p.Comments),
		Views:       thousands(p.Views),
	})
}

// thousands formats n with comma separators, as in "12,345".
func thousands(n int) string {
	if n < 0 {
		return "-" + thousands(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

// Photo formats the page of a single photo.
func (r *Renderer) Photo(p *export.Photo) ([]byte, error) {
	type comment struct {
		User, UserURL, Date, Text string
	}
	data := struct {
		Name, PhotoPage, TakenOn, Image string
		Views, Favorites, CommentCount  int
		Description                     template.HTML
		Comments                        []comment
		Albums, Tags, Groups, People    []link
		Privacy, Location, License      string
		Exif                            []export.ExifField
	}{
		Name:         p.Name,
		PhotoPage:    p.PhotoPage,
		TakenOn:      p.TakenOn(),
		Image:        nested(r.image(p.ID)),
		Views:        p.Views,
		Favorites:    p.Favorites,
		CommentCount: p.CommentCount,
		Description:  template.HTML(p.Description),
		Privacy:      p.Privacy,
		License:      p.License,
		Exif:         p.Exif,
	}
	for _, c := range p.Comments {
		data.Comments = append(data.Comments, comment{
			User:    c.User,
			UserURL: serviceURL + "/photos/" + url.PathEscape(c.User),
			Date:    export.NiceDate(c.Date),
			Text:    c.Comment,
		})
	}
	for _, a := range p.Albums {
		data.Albums = append(data.Albums, link{Href: "../albums/" + a.ID + ".html", Text: a.Title})
	}
	for _, t := range p.Tags {
		data.Tags = append(data.Tags, link{Href: nested(tagHref(strings.ToLower(t))), Text: t})
	}
	for _, g := range p.Groups {
		data.Groups = append(data.Groups, link{Href: g.URL, Text: g.Name})
	}
	for _, person := range p.People {
		data.People = append(data.People, link{Href: serviceURL + "/photos/" + url.PathEscape(person), Text: person})
	}
	if g := p.Geo; g != nil {
		data.Location = fmt.Sprintf("latitude=%v, longitude=%v, accuracy=%d", g.Latitude, g.Longitude, g.Accuracy)
	}
	return execute("photo", data)
}

// AlbumIndex formats a page of the album index.
// It also returns the ids of album covers that have no image.
func (r *Renderer) AlbumIndex(page paginate.Page[*export.Album]) ([]byte, []string, error) {
	var tiles []tile
	var missing []string
	for _, a := range page.Entries {
		t := tile{
			Href:  "albums/" + a.ID + ".html",
			Thumb: r.thumb(a.CoverPhoto),
			Label: fmt.Sprintf("%s (%d)", a.Title, a.PhotoCount),
		}
		if t.Thumb == "" {
			missing = append(missing, a.ID)
		}
		tiles = append(tiles, t)
	}
	b, err := execute("index", indexPage{
		Title:  fmt.Sprintf("Albums, page %d", page.Number),
		Crumbs: []link{{Href: "index.html", Text: "Home"}},
		Pages:  pager("albums", page.Total),
		Rows:   rows(tiles),
	})
	return b, missing, err
}

// Album formats the page of a single album listed on page n of the index.
func (r *Renderer) Album(a *export.Album, n int) ([]byte, error) {
	var ids []string
	for _, id := range a.Photos {
		if id != "0" && export.ValidID(id) {
			ids = append(ids, id)
		}
	}
	return execute("group", groupPage{
		Title:       a.Title,
		TitleURL:    a.URL,
		Crumbs:      []link{{Href: "../index.html", Text: "Home"}, {Href: "../" + IndexFile("albums", n), Text: fmt.Sprintf("Albums, page %d", n)}},
		Description: template.HTML(a.Description),
		Listing:     r.photos(ids),
	})
}

// TagIndex formats a page of the tag index.
func (r *Renderer) TagIndex(page paginate.Page[index.Entry[string]]) ([]byte, error) {
	var tiles []tile
	for _, e := range page.Entries {
		var cover string
		if len(e.PhotoIDs) > 0 {
			cover = r.thumb(e.PhotoIDs[0])
		}
		tiles = append(tiles, tile{
			Href:  tagHref(e.Key),
			Thumb: cover,
			Label: fmt.Sprintf("%s (%d)", e.Key, len(e.PhotoIDs)),
		})
	}
	return execute("index", indexPage{
		Title:  fmt.Sprintf("Tags, page %d", page.Number),
		Crumbs: []link{{Href: "index.html", Text: "Home"}},
		Pages:  pager("tags", page.Total),
		Rows:   rows(tiles),
	})
}

// Tag formats the page of a single tag listed on page n of the index.
func (r *Renderer) Tag(e index.Entry[string], n int) ([]byte, error) {
	return execute("group", groupPage{
		Title:    e.Key,
		TitleURL: r.searchURL(dashes.Replace(e.Key)),
		Crumbs:   []link{{Href: "../index.html", Text: "Home"}, {Href: "../" + IndexFile("tags", n), Text: fmt.Sprintf("Tags, page %d", n)}},
		Listing:  r.photos(e.PhotoIDs),
	})
}

// LeaderboardIndex formats a page of a leaderboard index.
func (r *Renderer) LeaderboardIndex(lb index.Leaderboard, page paginate.Page[index.Entry[int]]) ([]byte, error) {
	var tiles []tile
	for _, e := range page.Entries {
		var cover string
		if len(e.PhotoIDs) > 0 {
			cover = r.thumb(e.PhotoIDs[0])
		}
		tiles = append(tiles, tile{
			Href:  fmt.Sprintf("%s/%d.html", lb.Dir(), e.Key),
			Thumb: cover,
			Label: fmt.Sprintf("%d %s (%d)", e.Key, lb.Name(), len(e.PhotoIDs)),
		})
	}
	return execute("index", indexPage{
		Title:  fmt.Sprintf("%s, page %d", lb.Heading(), page.Number),
		Crumbs: []link{{Href: "index.html", Text: "Home"}},
		Pages:  pager(lb.Dir(), page.Total),
		Rows:   rows(tiles),
	})
}

// Leaderboard formats the page of a single count listed on page n
// of a leaderboard index.
func (r *Renderer) Leaderboard(lb index.Leaderboard, e index.Entry[int], n int) ([]byte, error) {
	return execute("group", groupPage{
		Title:   lb.Title(e.Key),
		Crumbs:  []link{{Href: "../index.html", Text: "Home"}, {Href: "../" + IndexFile(lb.Dir(), n), Text: fmt.Sprintf("%s, page %d", lb.Heading(), n)}},
		Listing: r.photos(e.PhotoIDs),
	})
}
