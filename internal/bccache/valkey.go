package bccache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces bytecode entries so the backend can be shared
	// with unrelated cache consumers.
	keyPrefix = "tmplpress/bytecode/"

	// DefaultBytecodeTTL is how long a cached program stays in Valkey.
	// Zero disables expiry.
	DefaultBytecodeTTL = 24 * time.Hour
)

// ValkeyCache stores bytecode in a Valkey (Redis-compatible) backend.
// Backend failures degrade to a miss on load and a dropped write on
// dump unless IgnoreBackendErrors is false, in which case the backend
// error is returned unchanged. Context cancellation is never swallowed:
// a cancelled call reports the cancellation regardless of the flag.
type ValkeyCache struct {
	client *redis.Client
	ttl    time.Duration

	// IgnoreBackendErrors controls whether Valkey failures degrade
	// silently. Defaults to true for resilience; strict deployments can
	// flip it to surface backend trouble immediately.
	IgnoreBackendErrors bool
}

// NewValkeyCache creates a bytecode cache backed by the given client.
// A zero ttl selects DefaultBytecodeTTL.
func NewValkeyCache(client *redis.Client, ttl time.Duration) *ValkeyCache {
	if ttl == 0 {
		ttl = DefaultBytecodeTTL
	}
	return &ValkeyCache{client: client, ttl: ttl, IgnoreBackendErrors: true}
}

// ignorable reports whether a backend error may degrade to a miss.
// Cancellation is excluded so callers always observe their own ctx.
func ignorable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// LoadBytecode loads with a background context.
func (c *ValkeyCache) LoadBytecode(b *Bucket) error {
	return c.LoadBytecodeContext(context.Background(), b)
}

// DumpBytecode dumps with a background context.
func (c *ValkeyCache) DumpBytecode(b *Bucket) error {
	return c.DumpBytecodeContext(context.Background(), b)
}

// LoadBytecodeContext fills the bucket from Valkey, if the key exists.
func (c *ValkeyCache) LoadBytecodeContext(ctx context.Context, b *Bucket) error {
	data, err := c.client.Get(ctx, keyPrefix+b.Key()).Bytes()
	if err == redis.Nil {
		b.Reset()
		return nil
	}
	if err != nil {
		if c.IgnoreBackendErrors && ignorable(err) {
			slog.Warn("bytecode cache load failed", "key", b.Key(), "error", err)
			b.Reset()
			return nil
		}
		return err
	}
	return b.FromBytes(data)
}

// DumpBytecodeContext writes the bucket's program to Valkey.
func (c *ValkeyCache) DumpBytecodeContext(ctx context.Context, b *Bucket) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, keyPrefix+b.Key(), data, c.ttl).Err(); err != nil {
		if c.IgnoreBackendErrors && ignorable(err) {
			slog.Warn("bytecode cache dump failed", "key", b.Key(), "error", err)
			return nil
		}
		return err
	}
	return nil
}
