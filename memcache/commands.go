package memcache

import (
	"context"

	"github.com/lalinsky/gocache/mcmeta"
)

// Get fetches key into buf. A miss returns a *cacheerr.Error of Kind
// NotFound.
func (c *Client) Get(ctx context.Context, key string, buf []byte) (mcmeta.Info, error) {
	s := c.pickServer(key)
	return withServer(ctx, c, s, func(conn *Conn) (mcmeta.Info, error) {
		return conn.Get(key, buf)
	})
}

// Touch refreshes key's TTL to ttl seconds without transferring the
// value. A miss returns NotFound.
func (c *Client) Touch(ctx context.Context, key string, ttl uint32) error {
	s := c.pickServer(key)
	_, err := withServer(ctx, c, s, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.Touch(key, ttl)
	})
	return err
}

// Set unconditionally stores key=value with the given ttl (seconds;
// zero means no expiry).
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl uint32) error {
	return c.store(ctx, key, value, SetParams{TTL: ttl, Mode: mcmeta.ModeSet})
}

// Add stores key=value only if key does not already exist. A
// precondition failure returns NotStored.
func (c *Client) Add(ctx context.Context, key string, value []byte, ttl uint32) error {
	return c.store(ctx, key, value, SetParams{TTL: ttl, Mode: mcmeta.ModeAdd})
}

// Replace stores key=value only if key already exists. A precondition
// failure returns NotStored.
func (c *Client) Replace(ctx context.Context, key string, value []byte, ttl uint32) error {
	return c.store(ctx, key, value, SetParams{TTL: ttl, Mode: mcmeta.ModeReplace})
}

// Append appends value to the existing payload of key. A miss returns
// NotStored.
func (c *Client) Append(ctx context.Context, key string, value []byte) error {
	return c.store(ctx, key, value, SetParams{Mode: mcmeta.ModeAppend})
}

// Prepend prepends value to the existing payload of key. A miss
// returns NotStored.
func (c *Client) Prepend(ctx context.Context, key string, value []byte) error {
	return c.store(ctx, key, value, SetParams{Mode: mcmeta.ModePrepend})
}

// CompareAndSwap stores key=value only if its current CAS token
// matches cas. A mismatch returns Exists; a miss returns NotFound.
func (c *Client) CompareAndSwap(ctx context.Context, key string, value []byte, ttl uint32, cas uint64) error {
	return c.store(ctx, key, value, SetParams{TTL: ttl, Cas: cas, HasCas: true, Mode: mcmeta.ModeSet})
}

func (c *Client) store(ctx context.Context, key string, value []byte, params SetParams) error {
	s := c.pickServer(key)
	_, err := withServer(ctx, c, s, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.Set(key, value, params)
	})
	return err
}

// Delete removes key. A miss returns NotFound.
func (c *Client) Delete(ctx context.Context, key string) error {
	s := c.pickServer(key)
	_, err := withServer(ctx, c, s, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.Delete(key)
	})
	return err
}

// Increment adds delta to key's current value and returns the result.
// A miss returns NotFound.
func (c *Client) Increment(ctx context.Context, key string, delta uint64) (uint64, error) {
	s := c.pickServer(key)
	return withServer(ctx, c, s, func(conn *Conn) (uint64, error) {
		return conn.Arithmetic(key, delta, false)
	})
}

// Decrement subtracts delta from key's current value, floored at
// zero, and returns the result. A miss returns NotFound.
func (c *Client) Decrement(ctx context.Context, key string, delta uint64) (uint64, error) {
	s := c.pickServer(key)
	return withServer(ctx, c, s, func(conn *Conn) (uint64, error) {
		return conn.Arithmetic(key, delta, true)
	})
}

// FlushAll clears every key on one server, selected by round robin
// since flush_all carries no key to route by.
func (c *Client) FlushAll(ctx context.Context) error {
	s := c.pickServerRoundRobin()
	_, err := withServer(ctx, c, s, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.FlushAll()
	})
	return err
}

// Version reports the version string of one server, selected by round
// robin since version carries no key to route by.
func (c *Client) Version(ctx context.Context) (string, error) {
	s := c.pickServerRoundRobin()
	return withServer(ctx, c, s, func(conn *Conn) (string, error) {
		return conn.Version()
	})
}
