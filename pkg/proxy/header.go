package proxy

import (
	"net/http"
	"strings"
	"time"
)

const (
	// EmptyBodySHA256 is the hex SHA-256 of an empty payload, sent as
	// x-amz-content-sha256 to S3.
	EmptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// AmzDateFormat is the ISO-8601 basic format of x-amz-date.
	AmzDateFormat = "20060102T150405Z"
)

const (
	headerAmzContentSHA256 = "X-Amz-Content-Sha256"
	headerAmzDate          = "X-Amz-Date"
)

// amzHeaders are stripped from every outbound request.
var amzHeaders = []string{
	headerAmzContentSHA256,
	headerAmzDate,
	"X-Amz-Security-Token",
	"X-Amz-User-Agent",
}

// hopHeaders are connection-scoped and never forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// IsS3Host reports whether host is one of domains or a subdomain of one.
func IsS3Host(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// OutboundHeader derives the header of one outbound request from the
// inbound header. The result is a new map; in is not modified.
//
// Hop-by-hop headers and Host are dropped, the four x-amz-* signing
// headers are always removed, and x-amz-content-sha256 and x-amz-date are
// added back iff host is in the S3 domain family.
func OutboundHeader(in http.Header, host string, now time.Time, s3Domains []string) http.Header {
	out := in.Clone()
	if out == nil {
		out = make(http.Header)
	}

	removeHopHeaders(out)
	out.Del("Host")
	for _, h := range amzHeaders {
		out.Del(h)
	}

	if IsS3Host(host, s3Domains) {
		out.Set(headerAmzContentSHA256, EmptyBodySHA256)
		out.Set(headerAmzDate, now.UTC().Format(AmzDateFormat))
	}
	return out
}

// removeHopHeaders deletes hop-by-hop headers, including any named in
// the Connection header.
func removeHopHeaders(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
