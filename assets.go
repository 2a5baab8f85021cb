// Package eventdesk embeds the page shell templates and browser assets.
package eventdesk

import "embed"

// StaticFS holds frontend/static (live.js, css). With DEV=true the server
// reads the same tree from disk instead.
//
//go:embed all:frontend/static
var StaticFS embed.FS

// TemplateFS holds the layout and page content templates.
//
//go:embed all:frontend/templates
var TemplateFS embed.FS
