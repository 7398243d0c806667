// Package assets serves the static landing page.
//
// Requests that do not look like proxy routes are answered from a Store.
// By default it serves the pages embedded in the binary; server.assets_dir
// points it at a directory instead. The root path maps to index.html.
package assets
