package httpx

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
)

func newTestCredentials(t *testing.T) *Credentials {
	t.Helper()
	store, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cs := NewCredentials(store)
	cs.cost = bcrypt.MinCost
	return cs
}

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	var e *Error
	require.True(t, errors.As(err, &e), "want *Error, got %v", err)
	assert.Equal(t, status, e.Status)
	assert.Equal(t, msg, e.Message)
}

func TestRegisterAndValidate(t *testing.T) {
	ctx := context.Background()
	cs := newTestCredentials(t)

	user, err := cs.Register(ctx, model.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)

	got, err := cs.ValidateUser(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = cs.ValidateUser(ctx, "alice@example.com", "wrong")
	assertHTTPError(t, err, http.StatusUnauthorized, "Invalid credentials")

	_, err = cs.ValidateUser(ctx, "bob@example.com", "Passw0rd!")
	assertHTTPError(t, err, http.StatusUnauthorized, "Invalid credentials")
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	cs := newTestCredentials(t)

	_, err := cs.Register(ctx, model.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	for _, req := range []model.RegisterRequest{
		{Username: "alice", Email: "other@example.com", Password: "Passw0rd!"},
		{Username: "other", Email: "alice@example.com", Password: "Passw0rd!"},
	} {
		_, err = cs.Register(ctx, req)
		assertHTTPError(t, err, http.StatusBadRequest, "User with this email or username already exists")
	}

	// the first password still works
	_, err = cs.ValidateUser(ctx, "alice@example.com", "Passw0rd!")
	assert.NoError(t, err)
}

func TestLongPassword(t *testing.T) {
	ctx := context.Background()
	cs := newTestCredentials(t)

	long := "Passw0rd!" + strings.Repeat("a", 91)
	_, err := cs.Register(ctx, model.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: long})
	require.NoError(t, err)

	_, err = cs.ValidateUser(ctx, "alice@example.com", long)
	assert.NoError(t, err)

	// only the first 72 bytes count
	_, err = cs.ValidateUser(ctx, "alice@example.com", long[:72]+"different tail")
	assert.NoError(t, err)
	_, err = cs.ValidateUser(ctx, "alice@example.com", long[:71])
	assertHTTPError(t, err, http.StatusUnauthorized, "Invalid credentials")

	// multibyte characters past the cap
	wide := "Pässw0rd!" + strings.Repeat("é", 60)
	_, err = cs.Register(ctx, model.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: wide})
	require.NoError(t, err)
	_, err = cs.ValidateUser(ctx, "bob@example.com", wide)
	assert.NoError(t, err)
}
