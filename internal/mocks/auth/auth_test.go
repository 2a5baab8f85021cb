package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	apperrors "github.com/target/eventdesk/internal/errors"
)

func TestStubBackend_Defaults(t *testing.T) {
	backend := NewStubBackend()
	ctx := context.Background()

	id, err := backend.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, domainauth.RoleUser, id.Role)

	id, err = backend.SignIn(ctx, domainauth.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", id.Email)

	require.NoError(t, backend.SignOut(ctx))

	assert.Equal(t, 1, backend.Calls("verify"))
	assert.Equal(t, 1, backend.Calls("sign_in"))
	assert.Equal(t, 1, backend.Calls("sign_out"))
}

func TestStubBackend_Overrides(t *testing.T) {
	boom := errors.New("boom")
	backend := &StubBackend{
		VerifyFunc: func(context.Context) (domainauth.Identity, error) { return domainauth.Identity{}, boom },
	}
	_, err := backend.Verify(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRecordingNavigatorAndTokenJar(t *testing.T) {
	nav := &RecordingNavigator{}
	nav.Navigate("/a")
	nav.Navigate("/b")
	assert.Equal(t, []string{"/a", "/b"}, nav.Paths())

	jar := &TokenJar{}
	jar.ClearToken()
	assert.Equal(t, 1, jar.Cleared())
}

func TestMemoryHandoffStore_OneTime(t *testing.T) {
	store := NewMemoryHandoffStore()
	ctx := context.Background()

	ticket, err := store.Issue(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "ticket-1", ticket)

	token, err := store.Redeem(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = store.Redeem(ctx, ticket)
	assert.True(t, apperrors.IsNotFound(err))
}
