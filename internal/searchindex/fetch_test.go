package searchindex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/searchindex.js":
			w.Header().Set("Content-Type", "application/javascript")
			w.Write([]byte(tinyIndex))
		case "/garbage.js":
			w.Write([]byte("<html>not an index</html>"))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	idx, err := Fetch(ctx, server.Client(), server.URL+"/searchindex.js")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Expected 2 documents, got %d", idx.Len())
	}

	if _, err := Fetch(ctx, server.Client(), server.URL+"/garbage.js"); !errors.Is(err, ErrNoPayload) {
		t.Errorf("Expected ErrNoPayload, got %v", err)
	}

	_, err = Fetch(ctx, server.Client(), server.URL+"/old.js")
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Errorf("Expected status error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Download(cancelled, nil, server.URL+"/searchindex.js"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
