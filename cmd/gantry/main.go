// Gantry is a registry and download accelerator.
//
// It proxies Docker Registry v2 pulls and plain file downloads from an
// allow-list of origins, negotiating registry bearer tokens and following
// storage redirects on the client's behalf.
//
// Usage:
//
//	# Start the server with defaults and GANTRY_* environment overrides
//	gantry run
//
//	# Start with a configuration file
//	gantry run --config /etc/gantry/gantry.yaml
//
//	# Check a configuration file
//	gantry validate --config gantry.yaml
//
//	# Show where a request path would be sent
//	gantry resolve /v2/nginx/manifests/latest
//
//	# Print the accelerated form of an image or URL
//	gantry accelerate ghcr.io/owner/app:1.0 --proxy-host mirror.example.com
//
//	# Inspect the pull audit log
//	gantry audit query --host ghcr.io --since 24h
package main

func main() {
	Execute()
}
