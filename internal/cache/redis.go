package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound 저장된 세션 없음
var ErrSessionNotFound = errors.New("session not found")

// UserSession 로그인 세션 프로필
type UserSession struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Image      string    `json:"image,omitempty"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// RedisClient wraps the Redis client for session storage
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

func sessionKey(userID string) string {
	return "session:user:" + userID
}

const revokedKey = "session:revoked_refresh"

// SaveSession stores the session profile until it expires
func (r *RedisClient) SaveSession(ctx context.Context, s *UserSession, ttl time.Duration) error {
	if s.LoggedInAt.IsZero() {
		s.LoggedInAt = time.Now()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, sessionKey(s.UserID), data, ttl).Err(); err != nil {
		log.Printf("[Redis] Failed to save session: %v", err)
		return err
	}
	return nil
}

// GetSession loads the session profile of a user
func (r *RedisClient) GetSession(ctx context.Context, userID string) (*UserSession, error) {
	val, err := r.client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s UserSession
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes the session profile
func (r *RedisClient) DeleteSession(ctx context.Context, userID string) error {
	return r.client.Del(ctx, sessionKey(userID)).Err()
}

// RevokeRefreshToken marks a refresh token as unusable
func (r *RedisClient) RevokeRefreshToken(ctx context.Context, token string, ttl time.Duration) error {
	if err := r.client.SAdd(ctx, revokedKey, token).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, revokedKey, ttl).Err()
}

// IsRefreshTokenRevoked checks the revocation set
func (r *RedisClient) IsRefreshTokenRevoked(ctx context.Context, token string) (bool, error) {
	return r.client.SIsMember(ctx, revokedKey, token).Result()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
