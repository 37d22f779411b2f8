package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/titanous/json5"
)

// SetIndexCall is the function call wrapping the index object in the file.
const SetIndexCall = "Search.setIndex"

var (
	// ErrNoPayload is returned when the input holds no object literal.
	ErrNoPayload = errors.New("no index object found")

	// ErrTruncated is returned when a string or object literal is not closed.
	ErrTruncated = errors.New("index object is truncated")

	// ErrTrailingData is returned when something other than whitespace, the
	// closing parenthesis and an optional semicolon follows the object.
	ErrTrailingData = errors.New("unexpected data after index object")
)

// Load reads and parses the searchindex.js file at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}

	idx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// MaxDownloadSize bounds Download; large documentation sites stay far below it.
const MaxDownloadSize = 256 << 20

// Fetch downloads and parses a published searchindex.js.
func Fetch(ctx context.Context, client *http.Client, url string) (*Index, error) {
	data, err := Download(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Download returns the raw bytes of a published searchindex.js.
func Download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// Parse decodes the contents of a searchindex.js file. Both the
// Search.setIndex(...) wrapper and a bare object literal are accepted, with
// either bare identifier keys or quoted JSON keys.
func Parse(data []byte) (*Index, error) {
	payload, err := Normalize(data)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, describeJSONError(err)
	}

	idx := &Index{}
	targets := map[string]any{
		"docnames":   &idx.DocNames,
		"filenames":  &idx.FileNames,
		"titles":     &idx.Titles,
		"terms":      &idx.Terms,
		"titleterms": &idx.TitleTerms,
		"objects":    &idx.Objects,
		"objnames":   &idx.ObjNames,
		"objtypes":   &idx.ObjTypes,
		"envversion": &idx.EnvVersion,
	}

	for key, raw := range fields {
		switch key {
		case "alltitles":
			idx.AllTitles = append(json.RawMessage(nil), raw...)
			continue
		case "indexentries":
			idx.IndexEntries = append(json.RawMessage(nil), raw...)
			continue
		}

		target, known := targets[key]
		if !known {
			if idx.Extra == nil {
				idx.Extra = make(map[string]json.RawMessage)
			}
			idx.Extra[key] = append(json.RawMessage(nil), raw...)
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, describeJSONError(err))
		}
	}

	if idx.Terms == nil {
		idx.Terms = map[string]Postings{}
	}
	if idx.TitleTerms == nil {
		idx.TitleTerms = map[string]Postings{}
	}

	return idx, nil
}

// Normalize strips the Search.setIndex wrapper and decodes the object
// literal, bare identifier keys included, returning it as plain JSON with
// sorted keys.
func Normalize(data []byte) ([]byte, error) {
	body := bytes.TrimSpace(data)
	body = bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF})

	if bytes.HasPrefix(body, []byte(SetIndexCall)) {
		rest := bytes.TrimSpace(body[len(SetIndexCall):])
		if len(rest) == 0 || rest[0] != '(' {
			return nil, fmt.Errorf("%w: expected '(' after %s", ErrNoPayload, SetIndexCall)
		}
		body = trimStatementEnd(rest[1:])
		if !bytes.HasSuffix(body, []byte(")")) {
			return nil, fmt.Errorf("%w: missing closing ')'", ErrTruncated)
		}
		body = bytes.TrimSpace(body[:len(body)-1])
	} else {
		body = trimStatementEnd(body)
	}

	if len(body) == 0 || body[0] != '{' {
		return nil, ErrNoPayload
	}

	var object map[string]any
	if err := json5.Unmarshal(body, &object); err != nil {
		return nil, describeJSON5Error(err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(object); err != nil {
		return nil, fmt.Errorf("re-encoding index object: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func trimStatementEnd(b []byte) []byte {
	b = bytes.TrimSpace(b)
	return bytes.TrimSpace(bytes.TrimSuffix(b, []byte(";")))
}

// describeJSON5Error maps decoder failures onto the package sentinels
func describeJSON5Error(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "after top-level value"):
		return fmt.Errorf("%w: %v", ErrTrailingData, err)
	case strings.Contains(msg, "unexpected end of"):
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return fmt.Errorf("malformed index object: %w", err)
}

func describeJSONError(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed index object at offset %d: %w", syntaxErr.Offset, err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("unexpected %s at offset %d: %w", typeErr.Value, typeErr.Offset, err)
	}
	return err
}
