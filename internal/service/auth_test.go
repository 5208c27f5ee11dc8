package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

const testSecret = "test-secret-with-enough-characters!"

func newAuthService(t *testing.T) (*service.AuthService, *models.User) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	return service.NewAuthService(db, testSecret, time.Hour, nil), user
}

func validRegistration() *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     "Bob@Example.com",
		Username:  "bob",
		FirstName: "Bob",
		LastName:  "Builder",
		Password:  "long-enough-password",
	}
}

func TestRegister(t *testing.T) {
	auth, _ := newAuthService(t)

	user, err := auth.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "long-enough-password", user.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	auth, _ := newAuthService(t)

	req := validRegistration()
	req.Email = "alice@example.com"
	req.Username = "alice"

	_, err := auth.Register(context.Background(), req)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "username")
}

func TestRegisterInvalidInput(t *testing.T) {
	auth, _ := newAuthService(t)

	req := validRegistration()
	req.Username = "bad name!"
	req.Password = "short"

	_, err := auth.Register(context.Background(), req)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "password")
}

func TestLoginAndValidateToken(t *testing.T) {
	auth, user := newAuthService(t)
	ctx := context.Background()

	token, err := auth.Login(ctx, "ALICE@example.com", testhelpers.TestPassword)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, string(models.RoleUser), claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	auth, user := newAuthService(t)
	other := service.NewAuthService(testhelpers.SetupTestDB(t), "another-secret-with-enough-characters", time.Hour, nil)

	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, err = auth.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "carol", models.RoleUser)
	auth := service.NewAuthService(db, testSecret, time.Nanosecond, nil)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = auth.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	token, err := auth.Login(ctx, "alice@example.com", testhelpers.TestPassword)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	fresh, err := auth.Login(ctx, "alice@example.com", testhelpers.TestPassword)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, fresh)
	assert.NoError(t, err)
}

func TestAdminTokenRole(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	admin := testhelpers.CreateUser(t, db, "root", models.RoleAdmin)
	auth := service.NewAuthService(db, testSecret, time.Hour, nil)

	token, err := auth.GenerateToken(admin)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
}

func TestValidateTokenFollowsCurrentUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	admin := testhelpers.CreateUser(t, db, "root", models.RoleAdmin)
	gone := testhelpers.CreateUser(t, db, "gone", models.RoleUser)
	auth := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()

	adminToken, err := auth.GenerateToken(admin)
	require.NoError(t, err)
	goneToken, err := auth.GenerateToken(gone)
	require.NoError(t, err)

	require.NoError(t, db.Model(admin).Update("role", models.RoleUser).Error)
	claims, err := auth.ValidateToken(ctx, adminToken)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleUser), claims.Role)

	require.NoError(t, db.Delete(&models.User{}, gone.ID).Error)
	_, err = auth.ValidateToken(ctx, goneToken)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

type brokenRevoker struct{}

func (brokenRevoker) Revoke(context.Context, string, time.Time) error { return errors.New("store down") }

func (brokenRevoker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func TestValidateTokenRevokerFailure(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	auth := service.NewAuthService(db, testSecret, time.Hour, brokenRevoker{})

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	_, err = auth.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrAuthUnavailable)
	assert.NotErrorIs(t, err, service.ErrInvalidToken)
}

func TestSetPassword(t *testing.T) {
	auth, user := newAuthService(t)
	ctx := context.Background()

	err := auth.SetPassword(ctx, user.ID, &types.SetPasswordRequest{
		NewPassword:     "brand-new-password",
		CurrentPassword: "not-the-password",
	})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, auth.SetPassword(ctx, user.ID, &types.SetPasswordRequest{
		NewPassword:     "brand-new-password",
		CurrentPassword: testhelpers.TestPassword,
	}))

	_, err = auth.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, user.Email, "brand-new-password")
	assert.NoError(t, err)
}

func TestGetUserByIDMissing(t *testing.T) {
	auth, _ := newAuthService(t)
	_, err := auth.GetUserByID(context.Background(), 4242)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
