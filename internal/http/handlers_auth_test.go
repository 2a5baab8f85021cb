package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/eventdesk/internal/mocks"
	mockauth "github.com/target/eventdesk/internal/mocks/auth"
	"go.uber.org/mock/gomock"
)

func redeemRequestFor(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSessionHandlers_Redeem_SetsCookieOnce(t *testing.T) {
	store := mockauth.NewMemoryHandoffStore()
	ticket, err := store.Issue(context.Background(), "tok-123")
	require.NoError(t, err)

	h := &SessionHandlers{Handoff: store, CookieDomain: "example.com", CookieTTL: time.Hour}

	req := redeemRequestFor(`{"ticket":"` + ticket + `"}`)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	h.Redeem(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "jwt", ck.Name)
	assert.Equal(t, "tok-123", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, "example.com", ck.Domain)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 3600, ck.MaxAge)

	// Second redemption of the same ticket fails.
	w = httptest.NewRecorder()
	h.Redeem(w, redeemRequestFor(`{"ticket":"`+ticket+`"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionHandlers_Redeem_BadRequests(t *testing.T) {
	h := &SessionHandlers{Handoff: mockauth.NewMemoryHandoffStore()}

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"ticket":`},
		{name: "unknown field", body: `{"token":"abc"}`},
		{name: "blank ticket", body: `{"ticket":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Redeem(w, redeemRequestFor(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestSessionHandlers_Redeem_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockHandoffStore(ctrl)
	store.EXPECT().Redeem(gomock.Any(), "ticket-x").Return("", errors.New("dial tcp: connection refused"))

	h := &SessionHandlers{Handoff: store}
	w := httptest.NewRecorder()
	h.Redeem(w, redeemRequestFor(`{"ticket":"ticket-x"}`))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionHandlers_Clear(t *testing.T) {
	h := &SessionHandlers{CookieName: "sid", CookieDomain: "example.com"}

	req := httptest.NewRequest(http.MethodDelete, "/auth/session", nil)
	w := httptest.NewRecorder()
	h.Clear(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "sid", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, "example.com", ck.Domain)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
}
