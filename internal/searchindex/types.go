// Package searchindex reads and checks the searchindex.js files written by
// Sphinx-style documentation builders for their client-side search widget.
//
// A file holds a single call, Search.setIndex({...}), whose argument lists the
// documents of a site and maps every token to the documents containing it.
// An Index is built once by Parse and is read-only afterwards, so it can be
// shared between goroutines without locking.
package searchindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Index is the decoded argument of Search.setIndex.
type Index struct {
	DocNames   []string            `json:"docnames"`   // Document identifiers (path without extension)
	FileNames  []string            `json:"filenames"`  // Source paths, parallel to DocNames
	Titles     []string            `json:"titles"`     // Rendered HTML titles, parallel to DocNames
	Terms      map[string]Postings `json:"terms"`      // Body token -> documents
	TitleTerms map[string]Postings `json:"titleterms"` // Title token -> documents

	Objects    map[string]json.RawMessage `json:"objects"`
	ObjNames   map[string][]string        `json:"objnames"`
	ObjTypes   map[string]string          `json:"objtypes"`
	EnvVersion EnvVersion                 `json:"envversion"`

	// Written by newer builders only
	AllTitles    json.RawMessage `json:"alltitles,omitempty"`
	IndexEntries json.RawMessage `json:"indexentries,omitempty"`

	// Extra keeps top-level keys this package does not model so that
	// Encode writes them back untouched.
	Extra map[string]json.RawMessage `json:"-"`

	inverse struct {
		once   sync.Once
		terms  [][]string
		titles [][]string
	}
}

// Document is one entry of the parallel docnames/filenames/titles lists.
type Document struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	FileName string `json:"filename"`
	Title    string `json:"title"`
}

// Postings lists the documents a token appears in.
// On the wire it is either a bare integer or an array of integers.
type Postings []int

// UnmarshalJSON accepts both the scalar and the list form.
func (p *Postings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Postings{}
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var list []int
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid postings list: %w", err)
		}
		*p = Postings(list)
		return nil
	}

	var single int
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("invalid posting: %w", err)
	}
	*p = Postings{single}
	return nil
}

// MarshalJSON writes a single-document list as a bare integer, the way the
// builders do.
func (p Postings) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(p))
}

// Contains reports whether doc is listed.
func (p Postings) Contains(doc int) bool {
	for _, d := range p {
		if d == doc {
			return true
		}
	}
	return false
}

// EnvVersion is the builder environment stamp. Old builders write a single
// integer, newer ones a map of domain name to version.
type EnvVersion struct {
	Version *int
	Domains map[string]int
}

// IsZero reports whether no stamp was present.
func (e EnvVersion) IsZero() bool {
	return e.Version == nil && e.Domains == nil
}

// Generator returns the builder's own version: the scalar stamp, or the
// "sphinx" entry of the domain map.
func (e EnvVersion) Generator() (int, bool) {
	if e.Version != nil {
		return *e.Version, true
	}
	v, ok := e.Domains["sphinx"]
	return v, ok
}

// UnmarshalJSON accepts both shapes.
func (e *EnvVersion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*e = EnvVersion{}
		return nil
	}

	if len(data) > 0 && data[0] == '{' {
		domains := make(map[string]int)
		if err := json.Unmarshal(data, &domains); err != nil {
			return fmt.Errorf("invalid envversion map: %w", err)
		}
		*e = EnvVersion{Domains: domains}
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid envversion: %w", err)
	}
	*e = EnvVersion{Version: &v}
	return nil
}

// MarshalJSON re-emits the shape that was read.
func (e EnvVersion) MarshalJSON() ([]byte, error) {
	if e.Version != nil {
		return json.Marshal(*e.Version)
	}
	if e.Domains == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.Domains)
}

// ObjectEntry is one documented object (function, class, option...) from
// the objects table.
type ObjectEntry struct {
	Prefix    string `json:"prefix"`
	Name      string `json:"name"`
	DocIndex  int    `json:"doc_index"`
	TypeIndex int    `json:"type_index"`
	Priority  int    `json:"priority"`
	Anchor    string `json:"anchor"`
}

// ObjectEntries flattens the objects table. Two layouts exist in the wild:
//
//	{"prefix": {"name": [doc, type, prio, anchor]}}
//	{"prefix": [[doc, type, prio, anchor, name]]}
//
// Entries come back sorted by prefix then name.
func (idx *Index) ObjectEntries() ([]ObjectEntry, error) {
	var entries []ObjectEntry

	for prefix, raw := range idx.Objects {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		switch raw[0] {
		case '{':
			var byName map[string][]json.RawMessage
			if err := json.Unmarshal(raw, &byName); err != nil {
				return nil, fmt.Errorf("objects[%q]: %w", prefix, err)
			}
			for name, fields := range byName {
				entry, err := decodeObjectFields(prefix, name, fields)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
		case '[':
			var rows [][]json.RawMessage
			if err := json.Unmarshal(raw, &rows); err != nil {
				return nil, fmt.Errorf("objects[%q]: %w", prefix, err)
			}
			for _, fields := range rows {
				name := ""
				if len(fields) >= 5 {
					if err := json.Unmarshal(fields[4], &name); err != nil {
						return nil, fmt.Errorf("objects[%q]: invalid name: %w", prefix, err)
					}
				}
				entry, err := decodeObjectFields(prefix, name, fields)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
		default:
			return nil, fmt.Errorf("objects[%q]: unexpected value %s", prefix, raw)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Prefix != entries[j].Prefix {
			return entries[i].Prefix < entries[j].Prefix
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func decodeObjectFields(prefix, name string, fields []json.RawMessage) (ObjectEntry, error) {
	entry := ObjectEntry{Prefix: prefix, Name: name}
	if len(fields) < 4 {
		return entry, fmt.Errorf("objects[%q][%q]: expected at least 4 fields, got %d", prefix, name, len(fields))
	}

	ints := []*int{&entry.DocIndex, &entry.TypeIndex, &entry.Priority}
	for i, dst := range ints {
		if err := json.Unmarshal(fields[i], dst); err != nil {
			return entry, fmt.Errorf("objects[%q][%q]: field %d: %w", prefix, name, i, err)
		}
	}
	if err := json.Unmarshal(fields[3], &entry.Anchor); err != nil {
		return entry, fmt.Errorf("objects[%q][%q]: anchor: %w", prefix, name, err)
	}
	return entry, nil
}
