package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetStartTime(r.Context()).IsZero() {
			t.Error("expected start time in context")
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})
	wrapped := LoggingMiddleware(logger)(handler)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ghcr.io/org/img", nil))

	out := logs.String()
	for _, want := range []string{"request completed", "status=404", "bytes=7", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output, got %q", want, out)
		}
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.Write([]byte("hello"))
	rw.WriteHeader(http.StatusInternalServerError)
	rw.Flush()

	if rw.Status() != http.StatusOK {
		t.Errorf("expected implicit 200 to stick, got %d", rw.Status())
	}
	if rw.BytesWritten() != 5 {
		t.Errorf("expected 5 bytes, got %d", rw.BytesWritten())
	}
	if !rec.Flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
	if rw.Unwrap() != rec {
		t.Error("expected Unwrap to return the underlying writer")
	}
}
