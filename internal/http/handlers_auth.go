package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/ports"
)

// SessionHandlers moves the session token between a live tab and the
// browser's HTTP-only cookie.
type SessionHandlers struct {
	Handoff      ports.HandoffStore
	CookieName   string
	CookieDomain string
	// CookieTTL bounds the cookie lifetime; zero makes it a browser-session cookie.
	CookieTTL time.Duration
	Logger    *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SessionHandlers) cookieName() string {
	if h.CookieName == "" {
		return "jwt"
	}
	return h.CookieName
}

type redeemRequest struct {
	Ticket string `json:"ticket"`
}

// Redeem exchanges a one-time handoff ticket for the session cookie.
// POST /auth/session {"ticket": "..."}.
func (h *SessionHandlers) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if !DecodeJSON(w, r, &req) {
		return
	}
	ticket := strings.TrimSpace(req.Ticket)
	if ticket == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_ticket",
			Err:     errors.New("ticket is required"),
		})
		return
	}

	token, err := h.Handoff.Redeem(r.Context(), ticket)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusNotFound,
				ErrCode: "ticket_not_found",
				Err:     errors.New("ticket is unknown, expired or already used"),
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "redeem handoff ticket failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "handoff_unavailable",
			Err:     errors.New(apperrors.UserMessage(nil, apperrors.ErrCodeUnavailable)),
		})
		return
	}

	h.setSessionCookie(w, r, token)
	w.WriteHeader(http.StatusNoContent)
}

// Clear drops the session cookie.
// DELETE /auth/session.
func (h *SessionHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, r, h.cookieName())
	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookie writes the session cookie with the attributes clearCookie mirrors.
func (h *SessionHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	ck := &http.Cookie{
		Name:     h.cookieName(),
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	if h.CookieTTL > 0 {
		ck.MaxAge = int(h.CookieTTL.Seconds())
	}
	http.SetCookie(w, ck)
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *SessionHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
