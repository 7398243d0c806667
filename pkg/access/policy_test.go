package access

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/target"
)

func TestPolicy_Check(t *testing.T) {
	hosts := []string{"registry-1.docker.io", "github.com"}

	tests := []struct {
		name     string
		restrict bool
		keywords []string
		target   *target.Target
		rawPath  string
		want     Decision
	}{
		{
			name:   "allowed host",
			target: &target.Target{Host: "github.com", Path: "o/r"},
			want:   Decision{Allowed: true},
		},
		{
			name:   "unknown host",
			target: &target.Target{Host: "evil.example", Path: "x"},
			want:   Decision{Status: http.StatusBadRequest, Reason: ReasonHost},
		},
		{
			name:   "suffix of allowed host is not allowed",
			target: &target.Target{Host: "gist.github.com.evil.example"},
			want:   Decision{Status: http.StatusBadRequest, Reason: ReasonHost},
		},
		{
			name:   "subdomain of allowed host is not allowed",
			target: &target.Target{Host: "api.github.com"},
			want:   Decision{Status: http.StatusBadRequest, Reason: ReasonHost},
		},
		{
			name:     "registry path not in keywords",
			restrict: true,
			keywords: []string{"library"},
			target:   &target.Target{Host: "registry-1.docker.io", Path: "user/foo", Registry: true},
			rawPath:  "/library-lookalike/user/foo",
			want:     Decision{Status: http.StatusForbidden, Reason: ReasonPath},
		},
		{
			name:     "registry path matches keyword",
			restrict: true,
			keywords: []string{"library"},
			target:   &target.Target{Host: "registry-1.docker.io", Path: "library/foo", Registry: true},
			rawPath:  "/foo",
			want:     Decision{Allowed: true},
		},
		{
			name:     "keyword match is case insensitive",
			restrict: true,
			keywords: []string{"My-Org"},
			target:   &target.Target{Host: "registry-1.docker.io", Path: "my-org/app", Registry: true},
			want:     Decision{Allowed: true},
		},
		{
			name:     "non-registry checks raw path",
			restrict: true,
			keywords: []string{"owner"},
			target:   &target.Target{Host: "github.com", Path: "other/repo"},
			rawPath:  "/https://github.com/OWNER/../other/repo",
			want:     Decision{Allowed: true},
		},
		{
			name:     "non-registry raw path without keyword",
			restrict: true,
			keywords: []string{"owner"},
			target:   &target.Target{Host: "github.com", Path: "owner/repo"},
			rawPath:  "/github.com/someone/repo",
			want:     Decision{Status: http.StatusForbidden, Reason: ReasonPath},
		},
		{
			name:     "host check runs before path check",
			restrict: true,
			keywords: []string{"library"},
			target:   &target.Target{Host: "quay.io", Path: "library/x", Registry: true},
			want:     Decision{Status: http.StatusBadRequest, Reason: ReasonHost},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(hosts, tt.restrict, tt.keywords)
			got := p.Check(tt.target, tt.rawPath)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Check mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Access.RestrictPaths = true

	p := NewPolicyFromConfig(&cfg.Access)

	for _, host := range config.DefaultAllowedHosts {
		if !p.AllowsHost(host) {
			t.Errorf("expected default host %q to be allowed", host)
		}
	}

	resolver := target.NewResolverFromConfig(&cfg)
	tgt, err := resolver.Resolve("/nginx", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := p.Check(tgt, "/nginx"); !d.Allowed {
		t.Errorf("expected library/nginx to pass default keywords, got %+v", d)
	}

	tgt, err = resolver.Resolve("/someone/app", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := p.Check(tgt, "/someone/app"); d.Status != http.StatusForbidden {
		t.Errorf("expected 403 for path outside allowed keywords, got %+v", d)
	}
}
