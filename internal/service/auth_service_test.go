package service

import (
	"context"
	"testing"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(env *testEnv) AuthService {
	userRepo := repository.NewUserRepository(env.db)
	return NewAuthService(userRepo, []byte("test-secret"), time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user, err := auth.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)

	token, err := auth.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	parsed, err := jwt.Parse(token.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleUser, claims["role"])

	me, err := auth.Me(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	_, err := auth.Register(context.Background(), RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = auth.Register(context.Background(), RegisterRequest{
		Name: "Imposter", Email: "alice@example.com", Password: "other456",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	_, err := auth.Register(context.Background(), RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = auth.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	})
	require.ErrorIs(t, err, ErrValidation)
}
