package clusers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	"vitrine/internal/apperrors"

	"github.com/andskur/argon2-hashing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testParams = &argon2.Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func setupService(t *testing.T) *UserService {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&User{}))

	svc := NewUserService(testDB, []byte("secret-de-test"), 0)
	svc.params = testParams
	return svc
}

func TestRegisterFirstUserIsSuperAdmin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Email: " Admin@Vitrine.Example ", Password: "motdepasse", Name: "Admin", Role: RoleStaff}, nil)
	require.NoError(t, err)
	assert.Equal(t, "admin@vitrine.example", resp.User.Email)
	assert.Equal(t, RoleSuperAdmin, resp.User.Role)
	assert.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, RoleSuperAdmin, claims.Role)
}

func TestRegisterClosedAfterFirstUser(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Email: "root@vitrine.example", Password: "motdepasse"}, nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "bob@vitrine.example", Password: "motdepasse"}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	staff := &TokenClaims{UserID: 9, Role: RoleStaff}
	_, err = svc.Register(ctx, RegisterRequest{Email: "bob@vitrine.example", Password: "motdepasse"}, staff)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	admin, err := svc.ValidateToken(first.Token)
	require.NoError(t, err)
	resp, err := svc.Register(ctx, RegisterRequest{Email: "bob@vitrine.example", Password: "motdepasse"}, admin)
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, resp.User.Role)

	_, err = svc.Register(ctx, RegisterRequest{Email: "BOB@vitrine.example", Password: "motdepasse"}, admin)
	assert.True(t, apperrors.IsDuplicateError(err))

	_, err = svc.Register(ctx, RegisterRequest{Email: "eve@vitrine.example", Password: "motdepasse", Role: "root"}, admin)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestConcurrentFirstRegistrationsYieldOneSuperAdmin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, RegisterRequest{
				Email:    fmt.Sprintf("admin%d@vitrine.example", i),
				Password: "motdepasse",
			}, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
	assert.Equal(t, 1, succeeded)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, RoleSuperAdmin, users[0].Role)
}

func TestRegisterSuperAdminRequiresSuperAdmin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "root@vitrine.example", Password: "motdepasse"}, nil)
	require.NoError(t, err)

	admin := &TokenClaims{UserID: 2, Role: RoleAdmin}
	_, err = svc.Register(ctx, RegisterRequest{Email: "x@vitrine.example", Password: "motdepasse", Role: RoleSuperAdmin}, admin)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	resp, err := svc.Register(ctx, RegisterRequest{Email: "y@vitrine.example", Password: "motdepasse", Role: RoleAdmin}, admin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, resp.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "pas-un-email", Password: "motdepasse"}, nil)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.co", Password: "court"}, nil)
	assert.True(t, apperrors.IsValidationError(err))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "root@vitrine.example", Password: "motdepasse", Name: "Root"}, nil)
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ROOT@vitrine.example", Password: "motdepasse"})
	require.NoError(t, err)
	assert.Equal(t, "Root", resp.User.Name)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, LoginRequest{Email: "root@vitrine.example", Password: "mauvais"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "inconnu@vitrine.example", Password: "motdepasse"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "", Password: ""})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestValidateToken(t *testing.T) {
	svc := setupService(t)
	user := &User{ID: 3, Email: "a@b.co", Role: RoleAdmin}

	token, _, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)

	other := NewUserService(nil, []byte("autre-secret"), time.Hour)
	_, err = other.ValidateToken(token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.ValidateToken("pas.un.jeton")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	// expiré
	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	// algorithme "none" refusé
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{UserID: 1, Role: RoleSuperAdmin})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewUserService(nil, []byte("secret-de-test"), 0).ValidateToken(none)
	assert.Error(t, err)
}

func TestEnsureSuperAdminAndList(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	hash, err := argon2.GenerateFromPassword([]byte("motdepasse"), testParams)
	require.NoError(t, err)

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "Boss@Vitrine.Example", "Boss", string(hash)))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "boss@vitrine.example", "Boss", string(hash)))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "", "", ""))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "boss@vitrine.example", users[0].Email)
	assert.Equal(t, RoleSuperAdmin, users[0].Role)

	resp, err := svc.Login(ctx, LoginRequest{Email: "boss@vitrine.example", Password: "motdepasse"})
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, resp.User.ID)

	got, err := svc.Get(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Boss", got.Name)
	_, err = svc.Get(ctx, 999)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleAdmin.CanManageUsers())
	assert.True(t, RoleSuperAdmin.CanManageUsers())
	assert.False(t, RoleStaff.CanManageUsers())
	assert.False(t, Role("root").Valid())
}
