// Package data embeds the bundled case catalog: the manifest, the case documents, their suspect databases and
// the images they reference.
package data

import "embed"

//go:embed cases-manifest.json cases images
var Files embed.FS
