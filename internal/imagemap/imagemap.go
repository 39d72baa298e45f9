// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package imagemap resolves photo ids to image filenames in the export.
package imagemap

import (
	"os"
	"regexp"
	"sort"
)

// Map is a mapping of photo ids to image filenames.
//
//	{
//		"131099312": "fresh-crop_131099312_o.jpg",
//		"133996756": "t-rex-back-to-the-cretacious-3d-imax_133996756_o.jpg",
//	}
type Map map[string]string

// Lookup returns the image filename for a photo id.
func (m Map) Lookup(id string) (string, bool) {
	name, ok := m[id]
	return name, ok
}

// Files returns the distinct image filenames in lexical order.
func (m Map) Files() []string {
	seen := make(map[string]bool, len(m))
	var names []string
	for _, name := range m {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// idPatterns are the historical filename conventions of the export,
// tried in order. The first submatch is the photo id.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d+)_`),  // 131099312_fresh-crop.jpg
	regexp.MustCompile(`_(\d+)_o`), // fresh-crop_131099312_o.jpg
	regexp.MustCompile(`_(\d+)\.`), // fresh-crop_131099312.jpg
}

// IDFromName extracts the photo id from an image filename.
func IDFromName(name string) (string, bool) {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Locate builds a Map from image filenames.
// Names are processed in lexical order; if two names imply the same id,
// the later one wins. Names matching no pattern are returned as unmatched.
func Locate(names []string) (m Map, unmatched []string) {
	names = append([]string(nil), names...)
	sort.Strings(names)
	m = make(Map, len(names))
	for _, name := range names {
		id, ok := IDFromName(name)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		m[id] = name
	}
	return m, unmatched
}

// LocateDir calls Locate with the regular files in dir.
func LocateDir(dir string) (Map, []string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var names []string
	for _, de := range des {
		if de.Type().IsRegular() {
			names = append(names, de.Name())
		}
	}
	m, unmatched := Locate(names)
	return m, unmatched, nil
}

var niceNamePattern = regexp.MustCompile(`(.*)_\d+_o.(\w+)`)

// NiceName strips the photo id and original-size marker from an image
// filename, as in "fresh-crop_131099312_o.jpg" to "fresh-crop.jpg".
func NiceName(name string) (string, bool) {
	m := niceNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1] + "." + m[2], true
}
