package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/gantry/pkg/config"
)

func TestResolveRequest(t *testing.T) {
	const sha = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	tests := []struct {
		name   string
		path   string
		mutate func(*config.Config)
		want   resolution
	}{
		{
			name: "docker hub manifest",
			path: "/v2/nginx/manifests/latest",
			want: resolution{
				Path:      "/v2/nginx/manifests/latest",
				URL:       "https://registry-1.docker.io/v2/library/nginx/manifests/latest",
				Host:      "registry-1.docker.io",
				Registry:  true,
				Kind:      "manifest",
				Reference: "latest",
				Allowed:   true,
			},
		},
		{
			name: "blob by digest",
			path: "v2/ghcr.io/owner/app/blobs/" + sha,
			want: resolution{
				Path:      "/v2/ghcr.io/owner/app/blobs/" + sha,
				URL:       "https://ghcr.io/v2/owner/app/blobs/" + sha,
				Host:      "ghcr.io",
				Registry:  true,
				Kind:      "blob",
				Reference: sha,
				Digest:    sha,
				Allowed:   true,
			},
		},
		{
			name: "embedded url with redacted query",
			path: "/https://github.com/owner/repo/archive/main.zip?token=secret",
			want: resolution{
				Path:    "/https://github.com/owner/repo/archive/main.zip",
				URL:     "https://github.com/owner/repo/archive/main.zip?token=REDACTED",
				Host:    "github.com",
				Kind:    "none",
				Allowed: true,
			},
		},
		{
			name: "host not allowed",
			path: "/https://evil.example.com/payload",
			want: resolution{
				Path:   "/https://evil.example.com/payload",
				URL:    "https://evil.example.com/payload",
				Host:   "evil.example.com",
				Kind:   "none",
				Status: 400,
				Reason: "host",
			},
		},
		{
			name: "path keyword required",
			path: "/bitnami/redis",
			mutate: func(c *config.Config) {
				c.Access.RestrictPaths = true
			},
			want: resolution{
				Path:     "/bitnami/redis",
				URL:      "https://registry-1.docker.io/bitnami/redis",
				Host:     "registry-1.docker.io",
				Registry: true,
				Kind:     "none",
				Status:   403,
				Reason:   "path",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got := resolveRequest(&cfg, tt.path)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolveRequest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveRequest_Empty(t *testing.T) {
	cfg := config.Default()
	got := resolveRequest(&cfg, "/")
	if got.Error == "" {
		t.Fatal("expected error for empty path")
	}
	if got.Status != 400 {
		t.Errorf("expected status 400, got %d", got.Status)
	}
	if rows := got.Rows(); len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}
