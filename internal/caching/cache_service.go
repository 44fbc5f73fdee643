package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"taskhive/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Plan caching
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error
	GetPlanByType(ctx context.Context, planType string) (*models.Plan, error)
	SetPlanByType(ctx context.Context, planType string, plan *models.Plan, ttl time.Duration) error
	InvalidatePlans(ctx context.Context) error

	// Usage snapshot caching
	GetUsageSnapshot(ctx context.Context, userID uuid.UUID) (*models.UsageSnapshot, error)
	SetUsageSnapshot(ctx context.Context, snapshot *models.UsageSnapshot, ttl time.Duration) error
	DeleteUsageSnapshot(ctx context.Context, userID uuid.UUID) error

	// Session management
	SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Health
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port and rediss://host:port forms too
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	return r.getPlanByKey(ctx, fmt.Sprintf("taskhive:plan:%s", planID.String()))
}

func (r *redisCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	return r.setJSON(ctx, fmt.Sprintf("taskhive:plan:%s", plan.ID.String()), plan, ttl)
}

func (r *redisCacheService) GetPlanByType(ctx context.Context, planType string) (*models.Plan, error) {
	return r.getPlanByKey(ctx, fmt.Sprintf("taskhive:plan:type:%s", planType))
}

func (r *redisCacheService) SetPlanByType(ctx context.Context, planType string, plan *models.Plan, ttl time.Duration) error {
	return r.setJSON(ctx, fmt.Sprintf("taskhive:plan:type:%s", planType), plan, ttl)
}

func (r *redisCacheService) InvalidatePlans(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, "taskhive:plan:*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) getPlanByKey(ctx context.Context, key string) (*models.Plan, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var plan models.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *redisCacheService) GetUsageSnapshot(ctx context.Context, userID uuid.UUID) (*models.UsageSnapshot, error) {
	key := fmt.Sprintf("taskhive:usage:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var snapshot models.UsageSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *redisCacheService) SetUsageSnapshot(ctx context.Context, snapshot *models.UsageSnapshot, ttl time.Duration) error {
	return r.setJSON(ctx, fmt.Sprintf("taskhive:usage:%s", snapshot.UserID.String()), snapshot, ttl)
}

func (r *redisCacheService) DeleteUsageSnapshot(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, fmt.Sprintf("taskhive:usage:%s", userID.String())).Err()
}

func (r *redisCacheService) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, fmt.Sprintf("taskhive:session:%s", sessionID), userID, ttl).Err()
}

func (r *redisCacheService) GetSession(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.Get(ctx, fmt.Sprintf("taskhive:session:%s", sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // not found
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, fmt.Sprintf("taskhive:session:%s", sessionID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, fmt.Sprintf("taskhive:ratelimit:%s", key)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	fullKey := fmt.Sprintf("taskhive:ratelimit:%s", key)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}
