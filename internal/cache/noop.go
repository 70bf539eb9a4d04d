package cache

import (
	"context"
	"time"
)

// Noop satisfies Cache without storing anything. It backs deployments
// that run with caching disabled.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *Noop) Get(ctx context.Context, key string, value interface{}) error {
	return ErrNotFound
}

func (n *Noop) Delete(ctx context.Context, key string) error {
	return nil
}

func (n *Noop) Clear(ctx context.Context) error {
	return nil
}

func (n *Noop) Close() error {
	return nil
}
