package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestDBRevoker(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	revoker := service.NewDBRevoker(db)
	ctx := context.Background()

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestDBRevokerPurgesExpired(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	revoker := service.NewDBRevoker(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.RevokedToken{JTI: "old", ExpiresAt: time.Now().Add(-time.Hour)}).Error)

	revoked, err := revoker.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "new", time.Now().Add(time.Hour)))

	var count int64
	require.NoError(t, db.Model(&models.RevokedToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
