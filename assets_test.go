package eventdesk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveScript_VerifiesOnlyOnMount(t *testing.T) {
	src, err := StaticFS.ReadFile("frontend/static/js/live.js")
	require.NoError(t, err)
	js := string(src)

	// The server verifies once when the socket opens; the page never asks again on its own.
	assert.NotContains(t, js, `"check-auth"`)
	assert.NotContains(t, js, `"focus"`)
	assert.NotContains(t, js, `"visibilitychange"`)
	assert.False(t, strings.Contains(js, "setInterval"), "no periodic re-verification")
}

func TestLiveScript_SendsCSRFTokenToSessionEndpoint(t *testing.T) {
	src, err := StaticFS.ReadFile("frontend/static/js/live.js")
	require.NoError(t, err)
	js := string(src)

	assert.Contains(t, js, "csrf_token")
	assert.Equal(t, 2, strings.Count(js, `"X-Csrf-Token": csrfToken()`))
}
