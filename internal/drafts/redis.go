package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/interview-engine/internal/models"
)

// unlockScript deletes the lock only if it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only if it still holds our token
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
	// LockTTL bounds how long a crashed holder keeps a draft locked. Live holders renew it.
	LockTTL  time.Duration
}

// RedisStore keeps drafts as JSON values with a sliding TTL
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore connects to Redis
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}, nil
}

// Client exposes the underlying client for health checks
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Get loads a draft
func (s *RedisStore) Get(ctx context.Context, ownerID, id string) (*models.InterviewDraft, error) {
	raw, err := s.client.Get(ctx, draftKey(ownerID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var d models.InterviewDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &d, nil
}

// Save writes the draft and refreshes its TTL
func (s *RedisStore) Save(ctx context.Context, d *models.InterviewDraft) error {
	if d == nil || d.ID == "" {
		return errors.New("draft id is required")
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := s.client.Set(ctx, draftKey(d.OwnerID, d.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

// Delete removes a draft
func (s *RedisStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.client.Del(ctx, draftKey(ownerID, id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Lock takes a SET NX lock on the draft and renews it until unlock is called. The lock
// expires on its own if the holder dies.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.New().String()
	key := lockKey(id)

	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock draft: %w", err)
	}
	if !ok {
		return nil, models.ErrBusy
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go s.renewLock(id, key, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed

			// The request context may already be cancelled when unlocking
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := unlockScript.Run(unlockCtx, s.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				slog.Warn("failed to release draft lock", "error", err, "draft", id)
			}
		})
	}, nil
}

func (s *RedisStore) renewLock(id, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := renewScript.Run(ctx, s.client, []string{key}, token, s.lockTTL.Milliseconds()).Int()
			cancel()

			if err != nil {
				slog.Warn("failed to renew draft lock", "error", err, "draft", id)
				continue
			}
			if n == 0 {
				slog.Warn("draft lock lost before release", "draft", id)
				return
			}
		}
	}
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
