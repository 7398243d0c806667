package target

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/opencontainers/go-digest"

	"mercator-hq/gantry/pkg/config"
)

const v2Prefix = "/v2/"

var (
	// ErrEmptyPath is returned when the inbound path has no segments.
	ErrEmptyPath = errors.New("target domain or path required")

	// ErrInvalidURL is returned when an embedded absolute URL does not parse
	// or has no host.
	ErrInvalidURL = errors.New("invalid absolute target URL")
)

// Resolver maps inbound request paths to targets. It is safe for
// concurrent use.
type Resolver struct {
	allowed    map[string]struct{}
	registries map[string]struct{}
	hubHost    string
	hubAlias   string
}

// NewResolver creates a resolver. hubHost is the canonical Docker Hub
// registry host and hubAlias the public name that is rewritten to it.
func NewResolver(allowedHosts, registryHosts []string, hubHost, hubAlias string) *Resolver {
	return &Resolver{
		allowed:    toSet(allowedHosts),
		registries: toSet(registryHosts),
		hubHost:    hubHost,
		hubAlias:   hubAlias,
	}
}

// NewResolverFromConfig creates a resolver from a configuration snapshot.
func NewResolverFromConfig(cfg *config.Config) *Resolver {
	return NewResolver(
		cfg.Access.AllowedHosts,
		cfg.Access.RegistryHosts,
		cfg.Registry.DockerHubHost,
		cfg.Registry.DockerHubAlias,
	)
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// IsRegistry reports whether host is a known container registry.
func (r *Resolver) IsRegistry(host string) bool {
	_, ok := r.registries[host]
	return ok
}

// Resolve maps an inbound path and query to a target.
//
// The /v2/ prefix is stripped first. If what remains is an absolute URL it
// wins over v2 and Docker shorthand parsing and is dispatched without a
// v2/ prefix. Otherwise a v2 path of three or more segments is split into
// repository, selector and reference, and the repository goes through
// Docker Hub shorthand normalisation.
func (r *Resolver) Resolve(path, rawQuery string) (*Target, error) {
	t := &Target{RawQuery: rawQuery}

	rest := path
	if strings.HasPrefix(rest, v2Prefix) {
		t.V2 = true
		rest = strings.TrimPrefix(rest, v2Prefix)
	}
	rest = strings.TrimPrefix(rest, "/")

	if abs, ok := absoluteURL(rest); ok {
		if err := r.resolveAbsolute(t, abs); err != nil {
			return nil, err
		}
		return t, nil
	}

	segments := splitSegments(rest)
	if t.V2 && len(segments) >= 3 {
		n := len(segments)
		selector, ref := segments[n-2], segments[n-1]
		t.Endpoint = selector + "/" + ref
		setKind(t, selector, ref)
		segments = segments[:n-2]
	}
	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}

	t.Host, t.Path = r.normalize(segments)
	if t.Host == r.hubAlias {
		t.Host = r.hubHost
	}
	t.Registry = r.IsRegistry(t.Host)
	return t, nil
}

// ResolveURL resolves an inbound request URL. Absolute targets are
// resolved from the escaped path so reserved characters such as %2F reach
// the upstream as sent.
func (r *Resolver) ResolveURL(u *url.URL) (*Target, error) {
	t, err := r.Resolve(u.Path, u.RawQuery)
	if err != nil || !t.Absolute {
		return t, err
	}
	escaped := u.EscapedPath()
	if escaped == u.Path {
		return t, nil
	}
	if et, err := r.Resolve(escaped, u.RawQuery); err == nil && et.Absolute {
		return et, nil
	}
	return t, nil
}

// normalize applies the Docker image shorthand rules.
func (r *Resolver) normalize(segments []string) (host, path string) {
	first := segments[0]
	switch {
	case first == r.hubAlias:
		rest := segments[1:]
		if len(rest) == 1 {
			return r.hubHost, "library/" + rest[0]
		}
		return r.hubHost, strings.Join(rest, "/")
	case r.isAllowed(first):
		return first, strings.Join(segments[1:], "/")
	case first == "library", len(segments) >= 2:
		return r.hubHost, strings.Join(segments, "/")
	default:
		return r.hubHost, "library/" + first
	}
}

func (r *Resolver) isAllowed(host string) bool {
	_, ok := r.allowed[host]
	return ok
}

func (r *Resolver) resolveAbsolute(t *Target, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Hostname() == "" {
		return ErrInvalidURL
	}

	// Only the hostname survives; scheme, port and userinfo are dropped.
	t.Absolute = true
	t.Host = u.Hostname()
	t.Path = strings.TrimPrefix(u.Path, "/")
	if u.RawPath != "" {
		t.RawPath = strings.TrimPrefix(u.EscapedPath(), "/")
	}
	if u.RawQuery != "" {
		t.RawQuery = u.RawQuery
	}
	if t.Host == r.hubAlias {
		t.Host = r.hubHost
	}
	t.Registry = r.IsRegistry(t.Host)

	// An absolute URL that itself addresses the v2 API keeps its kind.
	if strings.HasPrefix(t.Path, "v2/") {
		segments := splitSegments(strings.TrimPrefix(t.Path, "v2/"))
		if n := len(segments); n >= 3 {
			t.Endpoint = segments[n-2] + "/" + segments[n-1]
			setKind(t, segments[n-2], segments[n-1])
		}
	}
	return nil
}

// absoluteURL reports whether p embeds an http(s) URL, repairing a
// "https:/" whose double slash was collapsed on the way in.
func absoluteURL(p string) (string, bool) {
	for _, scheme := range []string{"https:", "http:"} {
		if !strings.HasPrefix(p, scheme) {
			continue
		}
		rest := strings.TrimPrefix(p, scheme)
		switch {
		case strings.HasPrefix(rest, "//"):
			return p, true
		case strings.HasPrefix(rest, "/"):
			return scheme + "/" + rest, true
		}
	}
	return "", false
}

func setKind(t *Target, selector, ref string) {
	switch selector {
	case "manifests":
		t.Kind = KindManifest
	case "blobs":
		t.Kind = KindBlob
	default:
		return
	}
	t.Reference = ref
	if d, err := digest.Parse(ref); err == nil {
		t.Digest = d
	}
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
