package geocache

import (
	"context"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const memcachedKeyPrefix = "chantier:"

// memcached treats relative expirations above 30 days as absolute unix
// timestamps, so longer TTLs (elevation) must be converted.
const maxRelativeExpSeconds = 30 * 24 * 60 * 60

// MemcachedStore implements Store on memcached. Expiry is enforced server
// side; Len is unknown (-1).
type MemcachedStore struct {
	client *memcache.Client
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns use package defaults if zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) key(k string) string {
	return memcachedKeyPrefix + k
}

// Get implements Store. Returns false, nil on cache miss; false, err on error.
func (s *MemcachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	item, err := s.client.Get(s.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return nil, false, nil
		}
		return nil, false, err
	}
	return item.Value, true, nil
}

// Set implements Store.
func (s *MemcachedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	expSec := int32(ttl.Seconds())
	if expSec <= 0 {
		expSec = 3600
	} else if expSec > maxRelativeExpSeconds {
		expSec = int32(time.Now().Add(ttl).Unix())
	}
	return s.client.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      value,
		Expiration: expSec,
	})
}

// Delete implements Store. A miss is not an error.
func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := s.client.Delete(s.key(key)); err != nil && err != memcache.ErrCacheMiss {
		return err
	}
	return nil
}

// Flush implements Store. Flushes the whole server, not just our prefix;
// acceptable because the cache is the only memcached tenant.
func (s *MemcachedStore) Flush(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.client.FlushAll()
}

// Len implements Store. memcached cannot enumerate keys.
func (s *MemcachedStore) Len() int {
	return -1
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
