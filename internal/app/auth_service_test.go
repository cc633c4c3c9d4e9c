package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(adminEmail string) (*AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	svc := NewAuthService(store, "test-secret", time.Hour, adminEmail)
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture("")

	registered, err := svc.Register(RegisterInput{
		Username: "operator",
		Email:    "Op@Example.com",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "op@example.com", registered.User.Email)

	loggedIn, err := svc.Login(LoginInput{Username: "operator", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, loggedIn.Token)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newAuthFixture("")

	_, err := svc.Register(RegisterInput{Username: "operator", Email: "op@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthFixture("")

	_, err := svc.Register(RegisterInput{Username: "operator", Email: "op@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "operator", Email: "other@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "someone", Email: "op@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newAuthFixture("")

	_, err := svc.Register(RegisterInput{Username: "operator", Email: "op@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Login(LoginInput{Username: "operator", Password: "wrongwrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginBootstrapsAdminOnEmptyStore(t *testing.T) {
	svc, store := newAuthFixture("admin@example.com")

	// First login with the configured admin email creates the account.
	result, err := svc.Login(LoginInput{Username: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "admin@example.com", result.User.Email)

	count, err := store.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// The created account holds the password used at setup.
	again, err := svc.Login(LoginInput{Username: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
}

func TestLoginBootstrapRequiresMatchingEmail(t *testing.T) {
	svc, store := newAuthFixture("admin@example.com")

	_, err := svc.Login(LoginInput{Username: "intruder@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoginBootstrapOnlyOnEmptyStore(t *testing.T) {
	svc, _ := newAuthFixture("admin@example.com")

	_, err := svc.Register(RegisterInput{Username: "operator", Email: "op@example.com", Password: "longenough"})
	require.NoError(t, err)

	// Once any account exists the setup path is closed.
	_, err = svc.Login(LoginInput{Username: "admin@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginUnknownUserWithoutBootstrap(t *testing.T) {
	svc, _ := newAuthFixture("")

	_, err := svc.Login(LoginInput{Username: "ghost", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
