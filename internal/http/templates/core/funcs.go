package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"strings"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"contains":     strings.Contains,
		"roleLabel":    RoleLabel,
		"initials":     Initials,
		"truncateText": TruncateText,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// RoleLabel turns a backend role ("ORGANIZER") into a display label ("Organizer").
func RoleLabel(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return "Guest"
	}
	lower := strings.ToLower(role)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Initials returns up to two upper-cased initials for an avatar badge.
func Initials(name string) string {
	var out []rune
	for _, f := range strings.FieldsFunc(name, func(r rune) bool { return r == ' ' || r == '.' || r == '@' }) {
		out = append(out, []rune(strings.ToUpper(f))[0])
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// TruncateText truncates a string to a maximum number of runes (not bytes).
// Adds an ellipsis (…) when truncated for visual clarity.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
