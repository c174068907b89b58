package redis

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/lalinsky/gocache/cacheerr"
	"github.com/lalinsky/gocache/resp"

	"bufio"
)

// Conn owns one TCP connection to a Redis-compatible server plus its
// read/write buffers. It is mutated exclusively by whichever goroutine
// currently holds it (between Pool.Acquire and Pool.Release) and
// doubles as a node in its Pool's idle list via next.
type Conn struct {
	nc net.Conn
	w  *resp.Writer
	r  *resp.Reader

	readTimeout  time.Duration
	writeTimeout time.Duration

	log *zap.Logger

	// next links this Conn into its Pool's idle list. Valid only while
	// the Conn sits idle; the holder must not touch it.
	next *Conn
}

// dial establishes a TCP connection to addr, applying connectTimeout,
// and wraps it with read/write buffers sized per opts. Any failure
// before return releases every partial resource.
func dial(addr string, opts Options) (*Conn, error) {
	d := net.Dialer{Timeout: opts.ConnectTimeout}
	nc, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, cacheerr.Wrap(cacheerr.ConnectionFailed, err)
	}
	c := &Conn{
		nc:           nc,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		log:          opts.Logger,
	}
	c.w = resp.NewWriter(bufio.NewWriterSize(nc, opts.WriteBufferSize))
	c.r = resp.NewReader(bufio.NewReaderSize(nc, opts.ReadBufferSize))
	return c, nil
}

// Close frees the connection's resources. Callers always flush as
// part of a codec op, so Close never flushes.
func (c *Conn) Close() error {
	return c.nc.Close()
}

func (c *Conn) applyWriteDeadline() error {
	if c.writeTimeout == 0 {
		return nil
	}
	if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return nil
}

func (c *Conn) applyReadDeadline() error {
	if c.readTimeout == 0 {
		return nil
	}
	if err := c.nc.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	return nil
}

// writeCommand frames and flushes one command, applying the write
// deadline around the whole call.
func (c *Conn) writeCommand(args ...[]byte) error {
	if err := c.applyWriteDeadline(); err != nil {
		return err
	}
	if err := c.w.WriteCommand(args...); err != nil {
		return err
	}
	return c.w.Flush()
}

// execSimpleString writes args and reads a simple-string reply.
func (c *Conn) execSimpleString(args ...[]byte) ([]byte, error) {
	if err := c.writeCommand(args...); err != nil {
		return nil, err
	}
	if err := c.applyReadDeadline(); err != nil {
		return nil, err
	}
	return c.r.ExecSimpleString()
}

// execInteger writes args and reads an integer reply.
func (c *Conn) execInteger(args ...[]byte) (int64, error) {
	if err := c.writeCommand(args...); err != nil {
		return 0, err
	}
	if err := c.applyReadDeadline(); err != nil {
		return 0, err
	}
	return c.r.ExecInteger()
}

// execBulkString writes args and streams a bulk-string reply into buf.
func (c *Conn) execBulkString(buf []byte, args ...[]byte) ([]byte, error) {
	if err := c.writeCommand(args...); err != nil {
		return nil, err
	}
	if err := c.applyReadDeadline(); err != nil {
		return nil, err
	}
	return c.r.ExecBulkString(buf)
}

// queueCommand frames a command without flushing, used by Pipeline to
// batch many commands behind a single flush.
func (c *Conn) queueCommand(args ...[]byte) error {
	return c.w.WriteCommand(args...)
}

// flush pushes every queued command onto the wire in one write,
// applying the write deadline around the whole batch.
func (c *Conn) flush() error {
	if err := c.applyWriteDeadline(); err != nil {
		return err
	}
	return c.w.Flush()
}

// execBulkStringDiscard writes args and reads a bulk-string reply
// whose payload is discarded unconditionally, used by PING with a
// message: the caller only needs confirmation the reply framed
// correctly, not the echoed bytes.
func (c *Conn) execBulkStringDiscard(args ...[]byte) error {
	if err := c.writeCommand(args...); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.DiscardBulkString()
}

// execOkOrNil writes args and reads an OK-or-nil reply.
func (c *Conn) execOkOrNil(args ...[]byte) error {
	if err := c.writeCommand(args...); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.ExecOkOrNil()
}
