// Package target turns inbound proxy paths into upstream targets.
//
// Accepted forms:
//
//	/v2/<repo...>/manifests/<ref>    registry v2 manifest
//	/v2/<repo...>/blobs/<digest>     registry v2 blob
//	/<allowed-host>/<path...>        passthrough to an allow-listed host
//	/https://<url>, /http://<url>    absolute upstream URL
//	/docker.io/<ns>/<image>          Docker Hub
//	/library/<image>, /<ns>/<image>  Docker Hub
//	/<image>                         Docker Hub official image (library/<image>)
//
// Resolution is pure; it performs no network calls and never consults the
// access policy. The caller checks the resulting Target against
// access.Policy before dispatching.
package target
