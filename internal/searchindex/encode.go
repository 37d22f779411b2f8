package searchindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Payload returns the index object as JSON with keys in sorted order.
// Empty lists and tables are written as [] and {} rather than null.
func (idx *Index) Payload() ([]byte, error) {
	fields := make(map[string]any, 12+len(idx.Extra))
	for key, raw := range idx.Extra {
		fields[key] = raw
	}

	fields["docnames"] = nonNilStrings(idx.DocNames)
	fields["filenames"] = nonNilStrings(idx.FileNames)
	fields["titles"] = nonNilStrings(idx.Titles)
	fields["terms"] = nonNilPostings(idx.Terms)
	fields["titleterms"] = nonNilPostings(idx.TitleTerms)

	objects := idx.Objects
	if objects == nil {
		objects = map[string]json.RawMessage{}
	}
	fields["objects"] = objects

	objnames := idx.ObjNames
	if objnames == nil {
		objnames = map[string][]string{}
	}
	fields["objnames"] = objnames

	objtypes := idx.ObjTypes
	if objtypes == nil {
		objtypes = map[string]string{}
	}
	fields["objtypes"] = objtypes

	if !idx.EnvVersion.IsZero() {
		fields["envversion"] = idx.EnvVersion
	}
	if idx.AllTitles != nil {
		fields["alltitles"] = idx.AllTitles
	}
	if idx.IndexEntries != nil {
		fields["indexentries"] = idx.IndexEntries
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return payload, nil
}

// Marshal renders idx as a complete searchindex.js file.
func Marshal(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes idx to w as Search.setIndex({...}). The output parses back
// to an equal Index.
func Encode(w io.Writer, idx *Index) error {
	payload, err := idx.Payload()
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, SetIndexCall+"("); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = io.WriteString(w, ")")
	return err
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPostings(m map[string]Postings) map[string]Postings {
	if m == nil {
		return map[string]Postings{}
	}
	return m
}
