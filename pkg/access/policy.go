package access

import (
	"net/http"
	"strings"

	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/target"
)

// Denial reasons, also used as metric labels.
const (
	ReasonHost = "host"
	ReasonPath = "path"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool

	// Status is 400 or 403 when the request is rejected.
	Status int

	// Reason is ReasonHost or ReasonPath when the request is rejected.
	Reason string
}

// Policy is an immutable allow-list of upstream hosts plus an optional
// path keyword restriction.
type Policy struct {
	hosts    map[string]struct{}
	restrict bool
	keywords []string
}

// NewPolicy creates a policy. Keywords are matched case-insensitively.
func NewPolicy(allowedHosts []string, restrictPaths bool, allowedPaths []string) *Policy {
	p := &Policy{
		hosts:    make(map[string]struct{}, len(allowedHosts)),
		restrict: restrictPaths,
		keywords: make([]string, 0, len(allowedPaths)),
	}
	for _, h := range allowedHosts {
		p.hosts[h] = struct{}{}
	}
	for _, kw := range allowedPaths {
		p.keywords = append(p.keywords, strings.ToLower(kw))
	}
	return p
}

// NewPolicyFromConfig creates a policy from the access section.
func NewPolicyFromConfig(cfg *config.AccessConfig) *Policy {
	return NewPolicy(cfg.AllowedHosts, cfg.RestrictPaths, cfg.AllowedPaths)
}

// Check decides whether t may be fetched. The host must match an allowed
// host exactly. With path restriction on, a keyword must occur in the
// target path for registry targets and in rawPath otherwise.
func (p *Policy) Check(t *target.Target, rawPath string) Decision {
	if !p.AllowsHost(t.Host) {
		return Decision{Status: http.StatusBadRequest, Reason: ReasonHost}
	}

	if p.restrict {
		subject := rawPath
		if t.Registry {
			subject = t.Path
		}
		if !p.matchesKeyword(subject) {
			return Decision{Status: http.StatusForbidden, Reason: ReasonPath}
		}
	}

	return Decision{Allowed: true}
}

// AllowsHost reports whether host is on the allow-list.
func (p *Policy) AllowsHost(host string) bool {
	_, ok := p.hosts[host]
	return ok
}

func (p *Policy) matchesKeyword(subject string) bool {
	subject = strings.ToLower(subject)
	for _, kw := range p.keywords {
		if strings.Contains(subject, kw) {
			return true
		}
	}
	return false
}
