package registryauth

import (
	"regexp"
	"strings"
)

// Challenge is a parsed Bearer WWW-Authenticate challenge.
type Challenge struct {
	Realm   string
	Service string
	Scope   string
}

var paramPattern = regexp.MustCompile(`([a-zA-Z_]+)\s*=\s*"([^"]*)"`)

// ParseChallenge parses a header of the form
//
//	Bearer realm="<realm>",service="<service>",scope="<scope>"
//
// Parameters may appear in any order; service and scope may be missing.
// It returns false for other schemes or when realm is absent.
func ParseChallenge(header string) (Challenge, bool) {
	header = strings.TrimSpace(header)
	scheme, params, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return Challenge{}, false
	}

	var ch Challenge
	for _, m := range paramPattern.FindAllStringSubmatch(params, -1) {
		switch strings.ToLower(m[1]) {
		case "realm":
			ch.Realm = m[2]
		case "service":
			ch.Service = m[2]
		case "scope":
			ch.Scope = m[2]
		}
	}
	if ch.Realm == "" {
		return Challenge{}, false
	}
	return ch, true
}
