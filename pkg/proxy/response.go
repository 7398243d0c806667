package proxy

import "net/http"

// RegistryAPIVersion is the value of Docker-Distribution-API-Version.
const RegistryAPIVersion = "registry/2.0"

// policyHeaders would impose cross-origin or embedding rules the proxy
// cannot honour on behalf of the upstream.
var policyHeaders = []string{
	"Content-Security-Policy",
	"Content-Security-Policy-Report-Only",
	"Clear-Site-Data",
	"Cross-Origin-Embedder-Policy",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Resource-Policy",
}

// SanitizeHeader returns the client-facing copy of an upstream response
// header. It is idempotent and does not modify h.
//
// For registry targets Location is removed: every redirect has already
// been followed, so the client must never be sent elsewhere.
func SanitizeHeader(h http.Header, registry bool) http.Header {
	out := h.Clone()
	if out == nil {
		out = make(http.Header)
	}

	removeHopHeaders(out)
	for _, name := range policyHeaders {
		out.Del(name)
	}

	out.Set("Access-Control-Allow-Origin", "*")
	out.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	out.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if registry {
		out.Set("Docker-Distribution-API-Version", RegistryAPIVersion)
		out.Del("Location")
	}
	return out
}
