package repository

import (
	"context"
	"fmt"
	"strconv"

	"traveler/internal/config"
	"traveler/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	fieldIsLoggedIn = "isLoggedIn"
	fieldUsername   = "username"
	fieldEmail      = "email"
)

// RedisSessionRepository keeps the session flag set in a single hash with no expiry.
type RedisSessionRepository struct {
	client *redis.Client
	key    string
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisSessionRepository(client *redis.Client, namespace string) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		key:    "session:" + namespace,
	}
}

func (r *RedisSessionRepository) Get(ctx context.Context) (*models.Session, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	loggedIn, _ := strconv.ParseBool(values[fieldIsLoggedIn])
	return &models.Session{
		IsLoggedIn: loggedIn,
		Username:   values[fieldUsername],
		Email:      values[fieldEmail],
	}, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *models.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	err := r.client.HSet(ctx, r.key,
		fieldIsLoggedIn, strconv.FormatBool(session.IsLoggedIn),
		fieldUsername, session.Username,
		fieldEmail, session.Email,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save session in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Clear(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
