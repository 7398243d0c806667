package server

import (
	"net/http"
	"strings"

	"mercator-hq/gantry/pkg/proxy"
)

// IsAPIRequest reports whether path is a proxy route rather than a static
// page: more than one segment, the /v2/ prefix, an embedded absolute URL,
// or an allow-listed host as the first segment.
func IsAPIRequest(path string, allowedHosts []string) bool {
	segments := 0
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments++
		}
	}
	if segments > 1 {
		return true
	}
	if strings.HasPrefix(path, "/v2/") {
		return true
	}
	if strings.Contains(path, "https://") || strings.Contains(path, "http://") {
		return true
	}
	for _, host := range allowedHosts {
		if strings.HasPrefix(path, "/"+host) {
			return true
		}
	}
	return false
}

// versionCheck answers the Docker Registry v2 ping locally.
func versionCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Docker-Distribution-API-Version", proxy.RegistryAPIVersion)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte("{}"))
	}
}

// dispatch routes a request without path cleaning: proxied paths such as
// /https://host/x must reach the proxy unmodified, which http.ServeMux
// would redirect.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	rt := s.routes.Load()
	path := r.URL.Path
	read := r.Method == http.MethodGet || r.Method == http.MethodHead

	// Local endpoints answer reads only; other methods fall through to the
	// proxy, where /version is the library/version image.
	switch {
	case read && path == "/health":
		s.liveness(w, r)
	case read && path == "/ready":
		s.readiness(w, r)
	case read && path == "/version":
		s.versionHandler(w, r)
	case read && s.metricsPath != "" && path == s.metricsPath:
		s.metricsHandler.ServeHTTP(w, r)
	case read && (path == "/v2" || path == "/v2/"):
		versionCheck(w, r)
	case read && !IsAPIRequest(path, rt.allowedHosts):
		s.assets.ServeHTTP(w, r)
	default:
		rt.proxy.ServeHTTP(w, r)
	}
}
