package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/internal/token"
	"github.com/invoiceregistry/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users  map[string]types.User // keyed by username
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}, nextID: 1}
}

func (r *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (types.User, error) {
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User, _ []int64) (types.User, error) {
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicateUsername
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.Username] = user
	return user, nil
}

type fakeRoleRepo struct {
	roles map[string]types.Role
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (types.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return types.Role{}, store.ErrNotFound
	}
	return role, nil
}

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	secret := base64.StdEncoding.EncodeToString([]byte("auth-service-test-secret"))
	codec, err := token.NewCodec(secret, time.Hour)
	require.NoError(t, err)
	return codec
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	roles := &fakeRoleRepo{roles: map[string]types.Role{
		"ROLE_USER":  {ID: 1, Name: "ROLE_USER"},
		"ROLE_ADMIN": {ID: 2, Name: "ROLE_ADMIN"},
	}}
	return NewAuthService(users, roles, testCodec(t), "ROLE_USER", zerolog.Nop()), users
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	auth, users := newTestAuthService(t)

	confirmation, err := auth.Register(ctx, "Alice Doe", "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "User Alice Doe successfully registered", confirmation)

	created := users.users["alice"]
	assert.Equal(t, []string{"ROLE_USER"}, created.Roles)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret")))
}

func TestAuthService_RegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService(t)

	_, err := auth.Register(ctx, "Alice", "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	// Same username: the username check runs first.
	_, err = auth.Register(ctx, "Other", "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// Different username, same email.
	_, err = auth.Register(ctx, "Other", "bob", "alice@example.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthService_RegisterRoleSeedMissing(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	roles := &fakeRoleRepo{roles: map[string]types.Role{}}
	auth := NewAuthService(users, roles, testCodec(t), "ROLE_USER", zerolog.Nop())

	_, err := auth.Register(ctx, "Alice", "alice", "alice@example.com", "pw")
	assert.ErrorIs(t, err, ErrRoleSeedMissing)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService(t)

	_, err := auth.Register(ctx, "Alice", "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	result, err := auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	require.NotNil(t, result.Role)
	assert.Equal(t, "ROLE_USER", *result.Role)

	// Logging in by email works too, and the token subject is the
	// identifier as supplied.
	result, err = auth.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	principal, err := auth.ResolvePrincipal(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.Subject)
	assert.Equal(t, []string{"ROLE_USER"}, principal.Roles)
}

func TestAuthService_LoginBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService(t)

	_, err := auth.Register(ctx, "Alice", "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	// Wrong password and unknown identifier must be indistinguishable.
	_, wrongPassword := auth.Login(ctx, "alice", "not-the-password")
	_, unknownUser := auth.Login(ctx, "nobody", "pw")

	assert.ErrorIs(t, wrongPassword, ErrBadCredentials)
	assert.ErrorIs(t, unknownUser, ErrBadCredentials)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestAuthService_LoginNoRoles(t *testing.T) {
	ctx := context.Background()
	auth, users := newTestAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users.users["norole"] = types.User{
		ID:           99,
		Username:     "norole",
		Email:        "norole@example.com",
		PasswordHash: string(hash),
	}

	result, err := auth.Login(ctx, "norole", "pw")
	require.NoError(t, err)
	assert.Nil(t, result.Role)
}

func TestAuthService_ResolvePrincipalNotFound(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService(t)

	_, err := auth.ResolvePrincipal(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
