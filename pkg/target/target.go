package target

import (
	"net/url"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Kind is the Registry v2 API object a target addresses.
type Kind int

const (
	// KindNone is any target that is not a manifest or blob fetch.
	KindNone Kind = iota
	// KindManifest addresses /v2/<repo>/manifests/<reference>.
	KindManifest
	// KindBlob addresses /v2/<repo>/blobs/<digest>.
	KindBlob
)

// String returns the label used in logs, metrics and audit records.
func (k Kind) String() string {
	switch k {
	case KindManifest:
		return "manifest"
	case KindBlob:
		return "blob"
	default:
		return "none"
	}
}

// Target is the upstream destination of one inbound request. It is built
// by Resolver and never modified afterwards.
type Target struct {
	// Host is a bare hostname: no scheme, port or userinfo.
	Host string

	// Path never begins with "/". For v2 requests it is the repository path.
	Path string

	// Registry is true when Host is a known container registry.
	Registry bool

	Kind Kind

	// Reference is the tag or digest; set iff Kind != KindNone.
	Reference string

	// Digest is set when Reference parses as a content digest.
	Digest digest.Digest

	// V2 is true when the inbound path carried the /v2/ prefix.
	V2 bool

	// Endpoint is the trailing "<selector>/<reference>" of a v2 path.
	Endpoint string

	// Absolute is true when the inbound path embedded a full URL.
	Absolute bool

	// RawPath is the escaped form of Path for absolute targets whose path
	// carries escaped reserved characters. Empty otherwise.
	RawPath string

	RawQuery string
}

// UpstreamPath returns the path to request from Host, without a leading
// slash. Registry v2 targets are rebuilt under "v2/"; absolute targets are
// used verbatim.
func (t *Target) UpstreamPath() string {
	if t.Absolute {
		return t.Path
	}

	p := t.Path
	if t.Endpoint != "" {
		if p == "" {
			p = t.Endpoint
		} else {
			p += "/" + t.Endpoint
		}
	}
	if t.V2 && t.Registry {
		p = "v2/" + p
	}
	return p
}

// URL returns the first-hop URL for the target. It is always https on the
// default port.
func (t *Target) URL() *url.URL {
	u := &url.URL{
		Scheme:   "https",
		Host:     t.Host,
		Path:     "/" + t.UpstreamPath(),
		RawQuery: t.RawQuery,
	}
	if t.Absolute && t.RawPath != "" {
		u.RawPath = "/" + t.RawPath
	}
	return u
}

// Repository returns "<host>/<path>" for registry targets and "" otherwise.
func (t *Target) Repository() string {
	if !t.Registry {
		return ""
	}
	return strings.TrimSuffix(t.Host+"/"+t.Path, "/")
}
