package assets

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"index.html", "text/html;charset=UTF-8"},
		{"css/site.CSS", "text/css;charset=UTF-8"},
		{"app.js", "application/javascript;charset=UTF-8"},
		{"logo.svg", "image/svg+xml"},
		{"archive.tar.gz", "application/octet-stream"},
		{"README", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := ContentType(tt.key); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStore_Embedded(t *testing.T) {
	s, err := New("", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	body, ct, err := s.Get("/")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer body.Close()

	if ct != "text/html;charset=UTF-8" {
		t.Errorf("expected html content type, got %q", ct)
	}
	data, _ := io.ReadAll(body)
	if !strings.Contains(string(data), "<title>Gantry</title>") {
		t.Error("expected built-in landing page")
	}
}

func TestStore_Dir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"index", "", nil},
		{"missing", "nope.css", ErrNotFound},
		{"directory", "sub", ErrNotFound},
		{"traversal", "../etc/passwd", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _, err := s.Get(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if body != nil {
				body.Close()
			}
		})
	}

	if _, err := New(filepath.Join(dir, "index.html"), nil); err == nil {
		t.Error("expected error for non-directory assets path")
	}
}

func TestStore_ServeHTTP(t *testing.T) {
	s, err := New("", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantType   string
	}{
		{"index", http.MethodGet, "/", http.StatusOK, "text/html;charset=UTF-8"},
		{"stylesheet", http.MethodGet, "/style.css", http.StatusOK, "text/css;charset=UTF-8"},
		{"head", http.MethodHead, "/", http.StatusOK, "text/html;charset=UTF-8"},
		{"missing", http.MethodGet, "/favicon.ico", http.StatusNotFound, "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.wantType {
				t.Errorf("expected content type %q, got %q", tt.wantType, ct)
			}
		})
	}
}
