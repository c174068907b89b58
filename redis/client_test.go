package redis

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHandler maps an expected command line (space-joined args, case
// sensitive) to the raw RESP2 bytes to write back.
func scriptedHandler(t *testing.T, script map[string]string) func(net.Conn) {
	return func(nc net.Conn) {
		defer nc.Close()
		r, w := newConnIO(nc)
		for {
			args, err := readCommand(r)
			if err != nil {
				return
			}
			key := strings.Join(args, " ")
			reply, ok := script[key]
			if !ok {
				t.Errorf("unexpected command: %q", key)
				w.WriteString("-ERR unexpected\r\n")
				w.Flush()
				continue
			}
			w.WriteString(reply)
			w.Flush()
		}
	}
}

func TestSetGetDel(t *testing.T) {
	fs := newFakeServer(t, scriptedHandler(t, map[string]string{
		"SET k v": "+OK\r\n",
		"GET k":   "$1\r\nv\r\n",
		"DEL k":   ":1\r\n",
	}))
	c, err := New(fs.addr())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", SetOptions{}))

	buf := make([]byte, 16)
	v, err := c.Get(ctx, "k", buf)
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	n, err := c.Del(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExpireAndTTL(t *testing.T) {
	fs := newFakeServer(t, scriptedHandler(t, map[string]string{
		"EXPIRE k 30": ":1\r\n",
		"TTL k":       ":30\r\n",
	}))
	c, err := New(fs.addr())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	ok, err := c.Expire(ctx, "k", 30)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := c.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(30), ttl)
}

func TestSetNXIdempotent(t *testing.T) {
	calls := 0
	fs := newFakeServer(t, func(nc net.Conn) {
		defer nc.Close()
		r, w := newConnIO(nc)
		for {
			args, err := readCommand(r)
			if err != nil {
				return
			}
			_ = args
			calls++
			if calls == 1 {
				w.WriteString("+OK\r\n")
			} else {
				w.WriteString("$-1\r\n")
			}
			w.Flush()
		}
	})
	c, err := New(fs.addr())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v1", SetOptions{NX: true}))
	// Second NX SET against an existing key returns the null reply,
	// which ExecOkOrNil treats as success rather than a distinguishable
	// miss — callers who need to know must re-Get.
	require.NoError(t, c.Set(ctx, "k", "v2", SetOptions{NX: true}))
}

// TestRetryAcrossReconnect exercises the retry-on-transient-failure
// property: the server accepts a connection, closes it without
// replying once, then serves normally on the client's next attempt.
func TestRetryAcrossReconnect(t *testing.T) {
	var attempt int
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			attempt++
			if attempt == 1 {
				nc.Close()
				continue
			}
			go func(nc net.Conn) {
				defer nc.Close()
				r, w := newConnIO(nc)
				if _, err := readCommand(r); err != nil {
					return
				}
				w.WriteString("$1\r\nv\r\n")
				w.Flush()
			}(nc)
		}
	}()

	c, err := New(ln.Addr().String(), WithRetryAttempts(2), WithRetryInterval(0))
	require.NoError(t, err)
	defer c.Close()

	buf := make([]byte, 16)
	v, err := c.Get(context.Background(), "k", buf)
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	assert.GreaterOrEqual(t, attempt, 2)
}

func TestGetContextCancellation(t *testing.T) {
	fs := newFakeServer(t, func(nc net.Conn) {
		// Accept the connection but never reply, so a read deadline or
		// cancellation is what ends the call.
		<-time.After(time.Hour)
		nc.Close()
	})
	c, err := New(fs.addr(), WithReadTimeout(20*time.Millisecond), WithRetryAttempts(0))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	buf := make([]byte, 16)
	_, err = c.Get(ctx, "k", buf)
	require.Error(t, err)
}
