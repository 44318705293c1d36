package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/tincture/internal/version"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if !strings.HasPrefix(r.Header.Get("User-Agent"), version.Name+"/") {
				http.Error(w, "bad agent", http.StatusBadRequest)
				return
			}
			if r.Header.Get("X-Test") != "yes" {
				http.Error(w, "missing header", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("hello"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	data, err := Fetch(ctx, srv.URL+"/ok", FetchOptions{Headers: map[string]string{"X-Test": "yes"}})
	if err != nil {
		t.Fatalf("Fetch(/ok) error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Fetch(/ok) = %q, want %q", data, "hello")
	}

	if _, err := Fetch(ctx, srv.URL+"/missing", FetchOptions{}); err == nil {
		t.Error("Fetch(/missing) error = nil, want HTTP error")
	}

	if _, err := Fetch(ctx, srv.URL+"/big", FetchOptions{MaxBytes: 10}); err == nil {
		t.Error("Fetch(/big) error = nil, want size limit error")
	}

	if _, err := Fetch(ctx, srv.URL+"/slow", FetchOptions{Timeout: 20 * time.Millisecond}); err == nil {
		t.Error("Fetch(/slow) error = nil, want timeout")
	}
}
