package services

import (
	"context"
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolkithub/internal/config"
	"toolkithub/internal/utils"
)

func TestHandleLoginUpsertsUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	token, err := e.auth.HandleLogin(ctx, goth.User{Provider: "github", UserID: "42", NickName: "ada", Email: "ada@example.com", AvatarURL: "https://img/ada"})
	require.NoError(t, err)

	claims, err := utils.ParseJWT([]byte("test-secret"), token)
	require.NoError(t, err)
	assert.False(t, claims.Admin)
	require.Len(t, e.store.users, 1)
	for _, u := range e.store.users {
		assert.Equal(t, u.ID.Hex(), claims.ID)
		assert.Equal(t, "ada", u.Name)
	}

	_, err = e.auth.HandleLogin(ctx, goth.User{Provider: "github", UserID: "42", Name: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Len(t, e.store.users, 1)
}

func TestHandleLoginRequiresIdentity(t *testing.T) {
	e := newEnv()
	_, err := e.auth.HandleLogin(context.Background(), goth.User{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestInitializeGothRegistersConfiguredProviders(t *testing.T) {
	names := InitializeGoth(&config.Config{
		SessionKey:           "k",
		OAuthCallbackBaseURL: "http://localhost:8080",
		GitHubClientID:       "id",
		GitHubClientSecret:   "secret",
	})
	assert.Equal(t, []string{"github"}, names)

	p, err := goth.GetProvider("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name())
}

func TestUserProfile(t *testing.T) {
	e := newEnv()
	u := e.seedUser("alice")

	got, err := e.users.GetUserProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = e.users.GetUserProfile(context.Background(), [12]byte{9})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
