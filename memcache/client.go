// Package memcache is a client for a set of memcached-compatible
// servers speaking the meta-protocol (mg/ms/md/ma, flush_all,
// version): connection pooling per server, retry-on-transient-failure
// pinned to a single server, and key routing via a pluggable Hasher.
package memcache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lalinsky/gocache/cacheerr"
	"github.com/lalinsky/gocache/internal/addr"
)

// Client is a distributed memcached client spanning one or more
// servers. It is safe for concurrent use by multiple goroutines.
type Client struct {
	servers []*Server
	opts    Options

	roundRobin atomic.Uint64
}

// New builds a Client over the given "host:port" server addresses.
// Every address is validated eagerly. With a single server, NoneHasher
// and ModuloHasher and RendezvousHasher all degenerate to that one
// server.
func New(addrs []string, opts ...Option) (*Client, error) {
	if len(addrs) == 0 {
		return nil, cacheerr.New(cacheerr.NoServers, "memcache: no server addresses given")
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	servers := make([]*Server, len(addrs))
	for i, a := range addrs {
		if _, _, err := addr.Parse(a); err != nil {
			return nil, err
		}
		servers[i] = newServer(a, o)
	}
	return &Client{servers: servers, opts: o}, nil
}

// Close drains every server's connection pool.
func (c *Client) Close() error {
	var firstErr error
	for _, s := range c.servers {
		if err := s.pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// pickServer selects the server for a key-bearing operation, via the
// configured Hasher, or round-robins when it's NoneHasher.
func (c *Client) pickServer(key string) *Server {
	if len(c.servers) == 1 {
		return c.servers[0]
	}
	if _, ok := c.opts.Hasher.(NoneHasher); ok {
		return c.pickServerRoundRobin()
	}
	return c.servers[c.opts.Hasher.Pick(c.servers, key)]
}

// pickServerRoundRobin selects a server for a keyless operation
// (version, flush_all), independent of the configured Hasher.
func (c *Client) pickServerRoundRobin() *Server {
	n := c.roundRobin.Add(1)
	return c.servers[int(n%uint64(len(c.servers)))]
}

// withServer implements the shared retry loop, pinned to a single
// server across all attempts: the failure model assumes per-server
// isolation (a retry should hit the same server again, never another
// one in the set).
func withServer[T any](ctx context.Context, c *Client, s *Server, fn func(*Conn) (T, error)) (T, error) {
	var zero T
	attempts := 0
	for {
		conn, err := s.pool.Acquire(ctx)
		if err != nil {
			if attempts < c.opts.RetryAttempts {
				attempts++
				c.opts.Logger.Debug("memcache: retrying after acquire failure",
					zap.String("addr", s.addr), zap.Int("attempt", attempts), zap.Error(err))
				if serr := sleepCtx(ctx, c.opts.RetryInterval); serr != nil {
					return zero, serr
				}
				continue
			}
			return zero, err
		}

		result, opErr := fn(conn)
		if opErr != nil {
			ok := cacheerr.Resumable(opErr)
			s.pool.Release(conn, ok)
			if !ok {
				c.opts.Logger.Debug("memcache: destroying connection after non-resumable error",
					zap.String("addr", s.addr), zap.Error(opErr))
				if attempts < c.opts.RetryAttempts {
					attempts++
					c.opts.Logger.Debug("memcache: retrying after non-resumable error",
						zap.String("addr", s.addr), zap.Int("attempt", attempts))
					if serr := sleepCtx(ctx, c.opts.RetryInterval); serr != nil {
						return zero, serr
					}
					continue
				}
			}
			return zero, opErr
		}

		s.pool.Release(conn, true)
		return result, nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
