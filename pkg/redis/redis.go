package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"StudySanctuary/internal/entity"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	enrolledPrefix     = "face:enrolled:"
	enrolledAllKey     = "face:enrolled:*all"
	focusSummaryPrefix = "focus:summary:"
)

// EnrolledKey is the cache key of one user's enrolled set. An empty user id addresses the set of
// every user.
func EnrolledKey(userID string) string {
	if userID == "" {
		return enrolledAllKey
	}
	return enrolledPrefix + userID
}

func FocusSummaryKey(sessionID string) string {
	return focusSummaryPrefix + sessionID
}

type IRedis interface {
	SetEnrolled(ctx context.Context, userID string, set []entity.EnrolledDescriptor, expiration time.Duration) error
	GetEnrolled(ctx context.Context, userID string) ([]entity.EnrolledDescriptor, error)
	InvalidateEnrolled(ctx context.Context, userID string) error
	SetFocusSummary(ctx context.Context, summary entity.FocusSessionSummary, expiration time.Duration) error
	GetFocusSummary(ctx context.Context, sessionID string) (entity.FocusSessionSummary, error)
	Close() error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) SetEnrolled(ctx context.Context, userID string, set []entity.EnrolledDescriptor, expiration time.Duration) error {
	return r.setJSON(ctx, EnrolledKey(userID), set, expiration)
}

func (r *redisClient) GetEnrolled(ctx context.Context, userID string) ([]entity.EnrolledDescriptor, error) {
	var set []entity.EnrolledDescriptor
	if err := r.getJSON(ctx, EnrolledKey(userID), &set); err != nil {
		return nil, err
	}
	return set, nil
}

// InvalidateEnrolled drops the user's cached set together with the all-users set.
func (r *redisClient) InvalidateEnrolled(ctx context.Context, userID string) error {
	keys := []string{EnrolledKey("")}
	if userID != "" {
		keys = append(keys, EnrolledKey(userID))
	}

	logrus.Debug(fmt.Sprintf("Deleting keys %v", keys))
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error deleting keys %v: %v", keys, err))
		return err
	}
	return nil
}

func (r *redisClient) SetFocusSummary(ctx context.Context, summary entity.FocusSessionSummary, expiration time.Duration) error {
	return r.setJSON(ctx, FocusSummaryKey(summary.ID), summary, expiration)
}

func (r *redisClient) GetFocusSummary(ctx context.Context, sessionID string) (entity.FocusSessionSummary, error) {
	var summary entity.FocusSessionSummary
	err := r.getJSON(ctx, FocusSummaryKey(sessionID), &summary)
	return summary, err
}

func (r *redisClient) Close() error {
	return r.client.Close()
}

func (r *redisClient) setJSON(ctx context.Context, key string, v interface{}, expiration time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	logrus.Debug(fmt.Sprintf("Setting key %s with expiration %v", key, expiration))
	if err := r.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error setting key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) getJSON(ctx context.Context, key string, v interface{}) error {
	logrus.Debug(fmt.Sprintf("Getting key %s", key))
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Key %s not found", key))
		return ErrCacheMiss
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting key %s: %v", key, err))
		return err
	}

	if err := json.Unmarshal(val, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
