package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TokenRevoker remembers logged-out token ids until the tokens expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevoker keeps revoked ids as expiring redis keys.
type RedisRevoker struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, keyPrefix: "revoked_token"}
}

func (r *RedisRevoker) key(jti string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, jti)
}

// Revoke stores jti until expiresAt. Already expired tokens are ignored.
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(jti), 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DBRevoker stores revoked ids in the revoked_tokens table. Used when redis is not
// configured.
type DBRevoker struct {
	db *gorm.DB
}

func NewDBRevoker(db *gorm.DB) *DBRevoker {
	return &DBRevoker{db: db}
}

// Revoke records jti and purges rows whose tokens have expired.
func (r *DBRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{}).Error; err != nil {
		return fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *DBRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
