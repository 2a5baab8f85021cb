package httpx

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	corefuncs "github.com/target/eventdesk/internal/http/templates/core"
	"github.com/target/eventdesk/internal/http/ui/viewmodel"
	"github.com/target/eventdesk/internal/live"
)

var _ live.Renderer = (*TemplateRenderer)(nil)

// TemplateRenderer renders the page shell and the live content fragments.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger

	mu sync.RWMutex
	t  *template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	DevMode    bool         // Re-parse templates on every render
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	t, err := r.parse()
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{
		Template:           &t,
		ContentTemplateFor: ContentTemplateFor,
	})
	parsed, err := template.New("root").Funcs(funcs).ParseFS(r.fsys, "*.tmpl", "pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	t = parsed
	return t, nil
}

func (r *TemplateRenderer) templates() (*template.Template, error) {
	if r.devMode {
		t, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.t = t
		r.mu.Unlock()
		return t, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t, nil
}

// RenderShell writes the full-page shell the live script boots from.
func (r *TemplateRenderer) RenderShell(w http.ResponseWriter, _ *http.Request, data viewmodel.Shell) error {
	var buf bytes.Buffer
	if err := r.execute(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", "layout"),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Render produces the content fragment for a live tab's current route.
func (r *TemplateRenderer) Render(_ context.Context, v live.View) (live.Content, error) {
	page := PageFor(v.Path)
	if v.Unmapped {
		page = PageNotFound
	}
	user := viewmodel.UserFromIdentity(v.Identity)
	data := viewmodel.Page{
		Layout: viewmodel.Layout{
			Title:           TitleFor(page) + " · EventDesk",
			PageTitle:       TitleFor(page),
			CurrentPage:     page,
			Path:            v.Path,
			IsAuthenticated: user != nil,
			User:            user,
		},
		Class:   v.Class.String(),
		Segment: lastSegment(v.Path),
	}

	var buf bytes.Buffer
	if err := r.execute(&buf, ContentTemplateFor(page), data); err != nil {
		return live.Content{}, err
	}
	return live.Content{Page: page, HTML: buf.String()}, nil
}

func (r *TemplateRenderer) execute(buf *bytes.Buffer, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		r.logTemplateError(name, err)
		return err
	}
	if err := t.ExecuteTemplate(buf, name, data); err != nil {
		r.logTemplateError(name, err)
		return err
	}
	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
