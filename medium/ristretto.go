package medium

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"
)

// Ristretto keeps items in a dgraph-io/ristretto cache. Ristretto admission
// is probabilistic, so SetItem may fail with ErrRejected under pressure;
// persisted stores treat that like any other flush failure.
type Ristretto struct {
	c *rc.Cache
}

var _ Medium = (*Ristretto)(nil)

type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64 // bytes; each item costs len(value)
	BufferItems int64
}

func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("medium: invalid ristretto config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (m *Ristretto) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		m.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// SetItem waits for the write buffer to drain so a following GetItem
// observes the value.
func (m *Ristretto) SetItem(_ context.Context, key string, value []byte) error {
	v := append([]byte(nil), value...)
	if !m.c.Set(key, v, int64(len(v))+1) {
		return ErrRejected
	}
	m.c.Wait()
	if _, ok := m.c.Get(key); !ok {
		return ErrRejected
	}
	return nil
}

func (m *Ristretto) Clear(_ context.Context) error {
	m.c.Clear()
	return nil
}

func (m *Ristretto) Close(_ context.Context) error {
	m.c.Wait()
	m.c.Close()
	return nil
}
