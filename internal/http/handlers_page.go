package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/http/ui/viewmodel"
)

// PageHandlers serves the page shell. The live tab fills in the content.
type PageHandlers struct {
	T          *TemplateRenderer
	LiveURL    string
	SignInPath string
	Logger     *slog.Logger
}

// Shell handles GET on any page route.
func (h *PageHandlers) Shell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if route.Normalize(r.URL.Path) == "" {
		http.NotFound(w, r)
		return
	}
	page := PageFor(r.URL.Path)
	data := viewmodel.Shell{
		Layout: viewmodel.Layout{
			Title:       TitleFor(page) + " · EventDesk",
			PageTitle:   TitleFor(page),
			CurrentPage: page,
			Path:        r.URL.RequestURI(),
		},
		LiveURL:    h.LiveURL,
		SignInPath: h.SignInPath,
	}
	// The edge guard's verdict depends on the cookie, so the shell must not be cached.
	w.Header().Set("Cache-Control", "no-store")
	if err := h.T.RenderShell(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render page shell failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *PageHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
