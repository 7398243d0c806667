package registryauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNegotiator_Token(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantToken string
		wantOK    bool
	}{
		{"token field", http.StatusOK, `{"token":"abc"}`, "abc", true},
		{"access_token fallback", http.StatusOK, `{"access_token":"xyz"}`, "xyz", true},
		{"token preferred", http.StatusOK, `{"token":"abc","access_token":"xyz"}`, "abc", true},
		{"no token", http.StatusOK, `{"expires_in":300}`, "", false},
		{"not json", http.StatusOK, `<html></html>`, "", false},
		{"unexpected shape", http.StatusOK, `{"token":42}`, "", false},
		{"non-2xx", http.StatusUnauthorized, `{"token":"abc"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			n := NewNegotiator(srv.Client(), time.Second, "", nil)
			tok, ok := n.Token(context.Background(), Challenge{Realm: srv.URL + "/token"}, "registry.example")

			if ok != tt.wantOK {
				t.Errorf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if tok != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, tok)
			}
		})
	}
}

func TestNegotiator_Request(t *testing.T) {
	var calls atomic.Int32
	var gotService, gotScope, gotAccept, gotUA string
	var hasScope bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotService = r.URL.Query().Get("service")
		gotScope = r.URL.Query().Get("scope")
		hasScope = r.URL.Query().Has("scope")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"token":"t"}`))
	}))
	defer srv.Close()

	n := NewNegotiator(srv.Client(), time.Second, "gantry-test", nil)

	t.Run("service from challenge", func(t *testing.T) {
		_, ok := n.Token(context.Background(), Challenge{
			Realm:   srv.URL + "/token",
			Service: "registry.example",
			Scope:   "repository:x:pull",
		}, "origin.example")
		if !ok {
			t.Fatal("expected token")
		}
		if gotService != "registry.example" {
			t.Errorf("expected service registry.example, got %q", gotService)
		}
		if gotScope != "repository:x:pull" {
			t.Errorf("expected scope repository:x:pull, got %q", gotScope)
		}
		if gotAccept != "application/json" {
			t.Errorf("expected Accept application/json, got %q", gotAccept)
		}
		if gotUA != "gantry-test" {
			t.Errorf("expected User-Agent gantry-test, got %q", gotUA)
		}
	})

	t.Run("empty service falls back to origin", func(t *testing.T) {
		_, _ = n.Token(context.Background(), Challenge{Realm: srv.URL + "/token"}, "origin.example")
		if gotService != "origin.example" {
			t.Errorf("expected service origin.example, got %q", gotService)
		}
		if hasScope {
			t.Errorf("expected no scope parameter for a challenge without scope, got %q", gotScope)
		}
	})

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 token requests, got %d", got)
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestNegotiator_SoftFailures(t *testing.T) {
	tests := []struct {
		name  string
		doer  Doer
		realm string
	}{
		{"transport error", failingDoer{}, "https://auth.example/token"},
		{"unsupported scheme", failingDoer{}, "ftp://auth.example/token"},
		{"unparsable realm", failingDoer{}, "https://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNegotiator(tt.doer, time.Second, "", nil)
			tok, ok := n.Token(context.Background(), Challenge{Realm: tt.realm}, "registry.example")
			if ok || tok != "" {
				t.Errorf("expected soft failure, got %q, %v", tok, ok)
			}
		})
	}
}
