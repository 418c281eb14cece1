package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-product-admin/internal/core"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	mockauth "github.com/target/mmk-product-admin/internal/mocks/auth"
	"github.com/target/mmk-product-admin/internal/ports"
)

type failingSessionStore struct {
	ports.SessionStore
	saveErr   error
	deleteErr error
}

func (f failingSessionStore) Save(ctx context.Context, s domainauth.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.SessionStore.Save(ctx, s)
}

func (f failingSessionStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.SessionStore.Delete(ctx, id)
}

func newAuthService(t *testing.T) (*AuthService, *mockauth.StubProvider, *core.MemorySessionStore) {
	t.Helper()
	provider := mockauth.NewStubProvider()
	sessions := core.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Roles:    mockauth.FixedRoleMapper(domainauth.RoleViewer),
	})
	return svc, provider, sessions
}

func TestAuthService_LoginFlow(t *testing.T) {
	svc, provider, _ := newAuthService(t)
	ctx := context.Background()

	ch, err := svc.BeginLogin(ctx, "/products")
	require.NoError(t, err)
	assert.Equal(t, "state-1", ch.State)

	sess, err := svc.CompleteLogin(ctx, CallbackInput{
		Code: "abc", State: ch.State, ExpectedState: ch.State, Nonce: ch.Nonce,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, domainauth.RoleViewer, sess.Role)
	assert.Equal(t, "stub-user", sess.Subject)
	assert.Equal(t, [][2]string{{"abc", "nonce-1"}}, provider.Exchanged)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	_, err = svc.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestAuthService_BeginLoginRequiresRedirect(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.BeginLogin(context.Background(), "")
	require.Error(t, err)
}

func TestAuthService_CompleteLoginValidation(t *testing.T) {
	svc, provider, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CallbackInput
		is   error
	}{
		{name: "missing code", in: CallbackInput{State: "s", ExpectedState: "s", Nonce: "n"}},
		{name: "state mismatch", in: CallbackInput{Code: "c", State: "s", ExpectedState: "t", Nonce: "n"}, is: ErrStateMismatch},
		{name: "no expected state", in: CallbackInput{Code: "c", State: "s", Nonce: "n"}, is: ErrStateMismatch},
		{name: "missing nonce", in: CallbackInput{Code: "c", State: "s", ExpectedState: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteLogin(ctx, tt.in)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
	assert.Empty(t, provider.Exchanged)
}

func TestAuthService_CompleteLoginErrors(t *testing.T) {
	ctx := context.Background()
	in := CallbackInput{Code: "c", State: "s", ExpectedState: "s", Nonce: "n"}

	provider := mockauth.NewStubProvider()
	provider.ExchangeErr = errors.New("idp down")
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: core.NewMemorySessionStore(),
		Roles:    mockauth.FixedRoleMapper(domainauth.RoleViewer),
	})
	_, err := svc.CompleteLogin(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code")

	svc = NewAuthService(AuthServiceOptions{
		Provider: mockauth.NewStubProvider(),
		Sessions: failingSessionStore{SessionStore: core.NewMemorySessionStore(), saveErr: errors.New("full")},
		Roles:    mockauth.FixedRoleMapper(domainauth.RoleViewer),
	})
	_, err = svc.CompleteLogin(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestAuthService_SessionExpiryCapped(t *testing.T) {
	provider := mockauth.NewStubProvider()
	provider.Identity.ExpiresAt = time.Now().Add(72 * time.Hour)
	svc := NewAuthService(AuthServiceOptions{
		Provider:      provider,
		Sessions:      core.NewMemorySessionStore(),
		Roles:         mockauth.FixedRoleMapper(domainauth.RoleAdmin),
		MaxSessionAge: time.Hour,
	})

	sess, err := svc.CompleteLogin(context.Background(), CallbackInput{Code: "c", State: "s", ExpectedState: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)
}

func TestAuthService_GetSessionExpired(t *testing.T) {
	svc, _, sessions := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Minute)}))
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err := svc.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionExpired)

	svc.now = time.Now
	_, err = svc.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = svc.GetSession(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestAuthService_LogoutEmpty(t *testing.T) {
	svc, _, _ := newAuthService(t)
	assert.NoError(t, svc.Logout(context.Background(), ""))

	failing := NewAuthService(AuthServiceOptions{
		Sessions: failingSessionStore{SessionStore: core.NewMemorySessionStore(), deleteErr: errors.New("boom")},
	})
	assert.Error(t, failing.Logout(context.Background(), "x"))
}
