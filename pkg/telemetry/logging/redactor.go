package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials that pass through the proxy: bearer tokens,
// basic credentials, pre-signed S3 query parameters and token query values.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternBasicAuth   = "basic_auth"
	PatternAmzQuery    = "amz_query"
	PatternTokenQuery  = "token_query"
)

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	defs := []struct {
		name        string
		regex       string
		replacement string
	}{
		{PatternBearerToken, `(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
		{PatternBasicAuth, `(?i)basic\s+[a-zA-Z0-9+/]+=*`, "Basic ***"},
		{PatternAmzQuery, `(?i)(X-Amz-(?:Signature|Credential|Security-Token)=)[^&\s"]+`, "${1}***"},
		{PatternTokenQuery, `(?i)([?&](?:access_token|token|sig|signature)=)[^&\s"]+`, "${1}***"},
	}

	r := &Redactor{}
	for _, d := range defs {
		r.patterns = append(r.patterns, redactPattern{
			name:        d.name,
			regex:       regexp.MustCompile(d.regex),
			replacement: d.replacement,
		})
	}
	return r
}

// RedactString masks every credential found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values under a
// sensitive key are masked entirely; other string values are scanned.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString && a.Value.Kind() != slog.KindAny {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	default:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"authorization", "password", "secret", "token"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
