package registryauth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChallenge(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Challenge
		wantOK bool
	}{
		{
			name:   "docker hub",
			header: `Bearer realm="https://auth.docker.io/token",service="registry.docker.io",scope="repository:library/nginx:pull"`,
			want: Challenge{
				Realm:   "https://auth.docker.io/token",
				Service: "registry.docker.io",
				Scope:   "repository:library/nginx:pull",
			},
			wantOK: true,
		},
		{
			name:   "reordered with spaces",
			header: `Bearer scope="repository:x:pull", realm="https://auth.example/token", service="registry.example"`,
			want: Challenge{
				Realm:   "https://auth.example/token",
				Service: "registry.example",
				Scope:   "repository:x:pull",
			},
			wantOK: true,
		},
		{
			name:   "empty service",
			header: `Bearer realm="https://ghcr.io/token",service="",scope="repository:o/app:pull"`,
			want:   Challenge{Realm: "https://ghcr.io/token", Scope: "repository:o/app:pull"},
			wantOK: true,
		},
		{
			name:   "lowercase scheme",
			header: `bearer realm="https://quay.io/v2/auth",service="quay.io"`,
			want:   Challenge{Realm: "https://quay.io/v2/auth", Service: "quay.io"},
			wantOK: true,
		},
		{
			name:   "basic scheme",
			header: `Basic realm="registry"`,
		},
		{
			name:   "missing realm",
			header: `Bearer service="registry.example"`,
		},
		{
			name:   "empty header",
			header: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseChallenge(tt.header)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseChallenge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
