package core

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Organizer", RoleLabel("ORGANIZER"))
	assert.Equal(t, "Admin", RoleLabel(" admin "))
	assert.Equal(t, "Guest", RoleLabel(""))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("Ada Lovelace"))
	assert.Equal(t, "UE", Initials("user@example.com"))
	assert.Equal(t, "", Initials(""))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Summe…", TruncateText("Summer gala", 6))
	assert.Equal(t, "S", TruncateText("Summer", 1))
	assert.Equal(t, "Summer", TruncateText("Summer", 0))
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(page string) string { return page + "-content" },
	})
	tmpl = template.Must(template.New("root").Funcs(funcs).Parse(
		`{{define "home-content"}}<p>{{.}}</p>{{end}}{{define "layout"}}{{renderSection "home" .}}{{end}}`,
	))

	var out strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&out, "layout", "<b>hi</b>"))
	assert.Equal(t, "<p>&lt;b&gt;hi&lt;/b&gt;</p>", out.String())
}
