package preset

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/observability"
)

// redisKeyPrefix namespaces preset keys in a shared Redis instance.
const redisKeyPrefix = "overmark:preset:"

// RedisConfig configures the Redis preset store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore is a Redis-backed preset store for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}

func (s *RedisStore) Save(ctx context.Context, p Preset) error {
	if err := prepare(&p); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal preset %q", p.Name)
	}

	// SETNX gives atomic duplicate rejection across instances.
	ok, err := s.client.SetNX(ctx, redisKey(p.Name), data, 0).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store preset %q", p.Name)
	}
	if !ok {
		return errors.New(errors.ErrCodePresetDuplicate, "preset %q already exists", p.Name)
	}
	observability.Preset().OnPresetSave(ctx, "redis", p.Name)
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (Preset, error) {
	if err := ValidateName(name); err != nil {
		return Preset{}, err
	}

	data, err := s.client.Get(ctx, redisKey(name)).Bytes()
	if err == redis.Nil {
		observability.Preset().OnPresetLoad(ctx, "redis", name, false)
		return Preset{}, errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	if err != nil {
		return Preset{}, errors.Wrap(errors.ErrCodeInternal, err, "load preset %q", name)
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, errors.Wrap(errors.ErrCodeInternal, err, "parse preset %q", name)
	}
	observability.Preset().OnPresetLoad(ctx, "redis", name, true)
	return p, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "scan presets")
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	n, err := s.client.Del(ctx, redisKey(name)).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete preset %q", name)
	}
	if n == 0 {
		return errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	observability.Preset().OnPresetDelete(ctx, "redis", name)
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
