package medium

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis keeps items under "<Namespace>:<key>". Clear deletes only keys in
// the namespace.
type Redis struct {
	rdb         goredis.UniversalClient
	ns          string
	ttl         time.Duration
	closeClient bool
}

var _ Medium = (*Redis)(nil)

type RedisConfig struct {
	Client    goredis.UniversalClient
	Namespace string        // defaults to "featherquery"
	TTL       time.Duration // 0 = no expiry
	// CloseClient should be true only if this medium exclusively owns Client.
	CloseClient bool
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = "featherquery"
	}
	return &Redis{rdb: cfg.Client, ns: ns, ttl: cfg.TTL, closeClient: cfg.CloseClient}, nil
}

func (m *Redis) key(k string) string { return m.ns + ":" + k }

func (m *Redis) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := m.rdb.Get(ctx, m.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (m *Redis) SetItem(ctx context.Context, key string, value []byte) error {
	return m.rdb.Set(ctx, m.key(key), value, m.ttl).Err()
}

func (m *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		ks, next, err := m.rdb.Scan(ctx, cursor, m.ns+":*", 100).Result()
		if err != nil {
			return err
		}
		if len(ks) > 0 {
			if err := m.rdb.Del(ctx, ks...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the client only when this medium owns it. Repeated calls
// are no-ops.
func (m *Redis) Close(context.Context) error {
	if m.closeClient {
		if err := m.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
