package web

import "embed"

// Templates embeds the document templates rendered to PDF.
//
//go:embed templates/**/*.html
var Templates embed.FS
