package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/invoiceregistry/apiserver/internal/services"
	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/internal/token"
	"github.com/invoiceregistry/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowUserRepo struct {
	users  map[string]types.User
	nextID int64
}

func (r *flowUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (types.User, error) {
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *flowUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *flowUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *flowUserRepo) Create(_ context.Context, user types.User, _ []int64) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.Username] = user
	return user, nil
}

type flowRoleRepo struct{}

func (flowRoleRepo) GetByName(_ context.Context, name string) (types.Role, error) {
	switch name {
	case "ROLE_USER":
		return types.Role{ID: 1, Name: "ROLE_USER"}, nil
	case "ROLE_ADMIN":
		return types.Role{ID: 2, Name: "ROLE_ADMIN"}, nil
	}
	return types.Role{}, store.ErrNotFound
}

// newFlowRouter assembles the real middleware chain and auth routes
// around an in-memory credential store, plus two probe routes with
// different role requirements.
func newFlowRouter(t *testing.T, codec *token.Codec) *chi.Mux {
	t.Helper()
	users := &flowUserRepo{users: map[string]types.User{}, nextID: 1}
	auth := services.NewAuthService(users, flowRoleRepo{}, codec, "ROLE_USER", zerolog.Nop())

	router := chi.NewRouter()
	router.Use(Authenticate(codec, auth))
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, auth)
	})
	router.With(RequireRoles("ROLE_ADMIN")).Get("/api/admin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "admin"})
	})
	router.With(RequireRoles("ROLE_ADMIN", "ROLE_USER")).Get("/api/shared", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "shared"})
	})
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getWithToken(t *testing.T, router http.Handler, path, tokenString string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginAccessFlow(t *testing.T) {
	codec := newTestCodec(t)
	router := newFlowRouter(t, codec)

	rec := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name:     "A",
		Username: "a",
		Email:    "a@x.com",
		Password: "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var msg MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, "User A successfully registered", msg.Message)

	rec = postJSON(t, router, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "a",
		Password:        "p",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Bearer", login.TokenType)
	require.NotNil(t, login.Role)
	assert.Equal(t, "ROLE_USER", *login.Role)

	// Admin-only route with a ROLE_USER token.
	assert.Equal(t, http.StatusForbidden, getWithToken(t, router, "/api/admin", login.AccessToken).Code)

	// Shared route with the same token.
	assert.Equal(t, http.StatusOK, getWithToken(t, router, "/api/shared", login.AccessToken).Code)

	// Anonymous request to the shared route.
	assert.Equal(t, http.StatusUnauthorized, getWithToken(t, router, "/api/shared", "").Code)

	// A garbage token behaves like no token at all on gated routes.
	assert.Equal(t, http.StatusUnauthorized, getWithToken(t, router, "/api/shared", "garbage").Code)
}

func TestRegisterValidation(t *testing.T) {
	codec := newTestCodec(t)
	router := newFlowRouter(t, codec)

	rec := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name:     "A",
		Username: "a",
		Email:    "not-an-email",
		Password: "p",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateMessages(t *testing.T) {
	codec := newTestCodec(t)
	router := newFlowRouter(t, codec)

	rec := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name: "A", Username: "a", Email: "a@x.com", Password: "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name: "B", Username: "a", Email: "b@x.com", Password: "p",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "Username a is already in use", errResp.Error)

	rec = postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name: "B", Username: "b", Email: "a@x.com", Password: "p",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "Email a@x.com is already in use", errResp.Error)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	codec := newTestCodec(t)
	router := newFlowRouter(t, codec)

	rec := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Name: "A", Username: "a", Email: "a@x.com", Password: "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := postJSON(t, router, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "a", Password: "wrong",
	})
	unknownUser := postJSON(t, router, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "nobody", Password: "p",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}
