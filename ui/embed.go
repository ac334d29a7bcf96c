// Package ui holds the HTML templates and static files of the web driver.
package ui

import "embed"

//go:embed templates static
var Files embed.FS
