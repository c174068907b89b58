package redis

import (
	"context"

	"github.com/lalinsky/gocache/cacheerr"
)

// maxBatchKeys bounds DEL/EXISTS argument arrays, which are built in a
// fixed-size local array rather than heap-allocated per call.
const maxBatchKeys = 64

var (
	cmdGet     = []byte("GET")
	cmdSet     = []byte("SET")
	cmdDel     = []byte("DEL")
	cmdIncr    = []byte("INCR")
	cmdIncrBy  = []byte("INCRBY")
	cmdDecr    = []byte("DECR")
	cmdDecrBy  = []byte("DECRBY")
	cmdExpire  = []byte("EXPIRE")
	cmdTTL     = []byte("TTL")
	cmdExists  = []byte("EXISTS")
	cmdPing    = []byte("PING")
	cmdFlushDB = []byte("FLUSHDB")
	cmdDBSize  = []byte("DBSIZE")

	optEX  = []byte("EX")
	optNX  = []byte("NX")
	optXX  = []byte("XX")
	optGET = []byte("GET")
)

// Get fetches key into buf and returns the sub-slice of buf holding
// the value, or (nil, nil) if key does not exist.
func (c *Client) Get(ctx context.Context, key string, buf []byte) ([]byte, error) {
	return withConnection(ctx, c, func(conn *Conn) ([]byte, error) {
		return conn.execBulkString(buf, cmdGet, []byte(key))
	})
}

// SetOptions configures SET. If both NX and XX are set, NX wins and
// XX is skipped, matching the curated surface's documented precedence.
type SetOptions struct {
	EX  uint32 // seconds; emitted only when nonzero
	NX  bool
	XX  bool
	Get bool
}

// Set stores key=value. A NX/XX precondition that fails to apply is
// swallowed into a success return (the server's "$-1" reply) rather
// than surfaced as a miss; callers who need to distinguish "not set"
// must re-Get. This mirrors the curated surface's documented quirk.
func (c *Client) Set(ctx context.Context, key, value string, opts SetOptions) error {
	var argv [8][]byte
	n := 0
	argv[n] = cmdSet
	n++
	argv[n] = []byte(key)
	n++
	argv[n] = []byte(value)
	n++

	var exBuf [32]byte
	if opts.EX > 0 {
		argv[n] = optEX
		n++
		argv[n] = appendUint(exBuf[:0], uint64(opts.EX))
		n++
	}
	if opts.NX {
		argv[n] = optNX
		n++
	} else if opts.XX {
		argv[n] = optXX
		n++
	}
	if opts.Get {
		argv[n] = optGET
		n++
	}

	_, err := withConnection(ctx, c, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.execOkOrNil(argv[:n]...)
	})
	return err
}

// Del deletes up to 64 keys in one call and returns the number
// actually removed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.batchKeyCommand(ctx, cmdDel, keys)
}

// Exists counts how many of up to 64 keys exist.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.batchKeyCommand(ctx, cmdExists, keys)
}

func (c *Client) batchKeyCommand(ctx context.Context, cmd []byte, keys []string) (int64, error) {
	if len(keys) > maxBatchKeys {
		return 0, cacheerr.New(cacheerr.TooManyKeys, "")
	}
	var argv [maxBatchKeys + 1][]byte
	argv[0] = cmd
	for i, k := range keys {
		argv[i+1] = []byte(k)
	}
	n := len(keys) + 1
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(argv[:n]...)
	})
}

// Incr increments key by 1 and returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdIncr, []byte(key))
	})
}

// IncrBy increments key by delta and returns the new value.
func (c *Client) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var buf [32]byte
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdIncrBy, []byte(key), appendInt(buf[:0], delta))
	})
}

// Decr decrements key by 1 and returns the new value.
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdDecr, []byte(key))
	})
}

// DecrBy decrements key by delta and returns the new value.
func (c *Client) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var buf [32]byte
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdDecrBy, []byte(key), appendInt(buf[:0], delta))
	})
}

// Expire sets key's TTL to the given number of seconds. It returns true if the timeout
// was set, false if the key does not exist.
func (c *Client) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	var buf [32]byte
	n, err := withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdExpire, []byte(key), appendInt(buf[:0], seconds))
	})
	return n == 1, err
}

// TTL returns key's remaining time to live in seconds, -2 if the key
// does not exist, or -1 if the key exists with no TTL.
func (c *Client) TTL(ctx context.Context, key string) (int64, error) {
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdTTL, []byte(key))
	})
}

// Ping with no message reads a simple-string "+PONG" reply. With a
// message, it writes the message and reads the bulk-string reply,
// discarding its payload entirely whatever its size — this mirrors
// the curated surface's documented behavior of not caring about the
// echoed payload.
func (c *Client) Ping(ctx context.Context, msg string) error {
	if msg == "" {
		_, err := withConnection(ctx, c, func(conn *Conn) (struct{}, error) {
			_, err := conn.execSimpleString(cmdPing)
			return struct{}{}, err
		})
		return err
	}
	_, err := withConnection(ctx, c, func(conn *Conn) (struct{}, error) {
		return struct{}{}, conn.execBulkStringDiscard(cmdPing, []byte(msg))
	})
	return err
}

// FlushDB removes every key from the currently selected database.
func (c *Client) FlushDB(ctx context.Context) error {
	_, err := withConnection(ctx, c, func(conn *Conn) (struct{}, error) {
		_, err := conn.execSimpleString(cmdFlushDB)
		return struct{}{}, err
	})
	return err
}

// DBSize reports the number of keys in the currently selected database.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	return withConnection(ctx, c, func(conn *Conn) (int64, error) {
		return conn.execInteger(cmdDBSize)
	})
}
