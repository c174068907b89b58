// Package redis is a client for a single Redis-compatible server
// speaking RESP2: connection pooling, retry-on-transient-failure, a
// curated string-command surface, and a batching Pipeline.
package redis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lalinsky/gocache/cacheerr"
	"github.com/lalinsky/gocache/internal/addr"
)

// Client is a single-server Redis client. It is safe for concurrent
// use by multiple goroutines; the underlying Pool serializes their
// access to the idle connection list.
type Client struct {
	addr string
	pool *Pool
	opts Options
}

// New builds a Client for the server at "host:port" (or "[::1]:port"
// for IPv6). Addr is validated eagerly so a typo fails at
// construction, not on first use.
func New(server string, opts ...Option) (*Client, error) {
	if _, _, err := addr.Parse(server); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		addr: server,
		pool: newPool(server, o),
		opts: o,
	}, nil
}

// Close drains the connection pool.
func (c *Client) Close() error {
	return c.pool.Close()
}

// withConnection implements the shared retry loop: acquire a
// connection, run fn, classify any error as resumable or not, and
// either surface a resumable error immediately or retry a
// non-resumable one up to RetryAttempts times.
func withConnection[T any](ctx context.Context, c *Client, fn func(*Conn) (T, error)) (T, error) {
	var zero T
	attempts := 0
	for {
		conn, err := c.pool.Acquire(ctx)
		if err != nil {
			if attempts < c.opts.RetryAttempts {
				attempts++
				c.opts.Logger.Debug("redis: retrying after acquire failure",
					zap.String("addr", c.addr), zap.Int("attempt", attempts), zap.Error(err))
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
			c.pool.Release(conn, ok)
			if !ok {
				c.opts.Logger.Debug("redis: destroying connection after non-resumable error",
					zap.String("addr", c.addr), zap.Error(opErr))
				if attempts < c.opts.RetryAttempts {
					attempts++
					c.opts.Logger.Debug("redis: retrying after non-resumable error",
						zap.String("addr", c.addr), zap.Int("attempt", attempts))
					if serr := sleepCtx(ctx, c.opts.RetryInterval); serr != nil {
						return zero, serr
					}
					continue
				}
			}
			return zero, opErr
		}

		c.pool.Release(conn, true)
		return result, nil
	}
}

// sleepCtx sleeps for d, or returns ctx.Err() if ctx is done first. A
// non-positive d returns immediately.
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
