package medium

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"
)

// BigCache keeps items in an allegro/bigcache instance. BigCache has no
// per-entry TTL; LifeWindow applies to every item, which makes it a good
// fit for a session medium that should forget snapshots after a while.
type BigCache struct {
	c *bc.BigCache
}

var _ Medium = (*BigCache)(nil)

type BigCacheConfig struct {
	LifeWindow         time.Duration // required
	CleanWindow        time.Duration
	MaxEntrySize       int
	HardMaxCacheSizeMB int // 0 = unlimited
}

func NewBigCache(cfg BigCacheConfig) (*BigCache, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("medium: bigcache life window is required")
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{c: c}, nil
}

func (m *BigCache) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	b, err := m.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (m *BigCache) SetItem(_ context.Context, key string, value []byte) error {
	return m.c.Set(key, value)
}

func (m *BigCache) Clear(_ context.Context) error {
	return m.c.Reset()
}

func (m *BigCache) Close(_ context.Context) error {
	return m.c.Close()
}
