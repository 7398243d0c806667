package assets

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed static
var embedded embed.FS

// IndexKey is served for the root path.
const IndexKey = "index.html"

// ErrNotFound is returned by Get when no asset exists for a key.
var ErrNotFound = errors.New("asset not found")

var contentTypes = map[string]string{
	"html": "text/html;charset=UTF-8",
	"css":  "text/css;charset=UTF-8",
	"js":   "application/javascript;charset=UTF-8",
	"svg":  "image/svg+xml",
}

// Store serves static files from a directory or, when none is configured,
// from the pages built into the binary.
type Store struct {
	fsys   fs.FS
	logger *slog.Logger
}

// New creates a Store reading from dir, or from the built-in pages when
// dir is empty.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to open built-in assets: %w", err)
		}
		fsys = sub
	} else {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open assets dir %q: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("assets path %q is not a directory", dir)
		}
		fsys = os.DirFS(dir)
	}

	return &Store{fsys: fsys, logger: logger.With("component", "assets")}, nil
}

// ContentType returns the content type for key based on its extension.
func ContentType(key string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Get opens the asset stored under key. The empty key maps to IndexKey.
// Keys that are not valid slash-separated relative paths are not found.
func (s *Store) Get(key string) (io.ReadCloser, string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		key = IndexKey
	}
	if !fs.ValidPath(key) {
		return nil, "", ErrNotFound
	}

	f, err := s.fsys.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, "", err
	}
	if info.IsDir() {
		f.Close()
		return nil, "", ErrNotFound
	}

	return f, ContentType(key), nil
}

// ServeHTTP serves the asset named by the request path.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := s.Get(r.URL.Path)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "error serving static asset",
			"path", r.URL.Path,
			"error", err,
		)
		http.Error(w, "Error serving asset", http.StatusInternalServerError)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		s.logger.DebugContext(r.Context(), "static asset write interrupted", "error", err)
	}
}
