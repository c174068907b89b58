package memcache

import (
	"bufio"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/lalinsky/gocache/cacheerr"
	"github.com/lalinsky/gocache/mcmeta"
)

// Conn owns one TCP connection to a memcached-compatible server plus
// its read/write buffers, and doubles as a node in its Pool's idle
// list via next.
type Conn struct {
	nc net.Conn
	w  *mcmeta.Writer
	r  *mcmeta.Reader

	readTimeout  time.Duration
	writeTimeout time.Duration

	log *zap.Logger

	next *Conn
}

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
	c.w = mcmeta.NewWriter(bufio.NewWriterSize(nc, opts.WriteBufferSize))
	c.r = mcmeta.NewReader(bufio.NewReaderSize(nc, opts.ReadBufferSize))
	return c, nil
}

// Close frees the connection's resources.
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

func (c *Conn) flush() error {
	if err := c.applyWriteDeadline(); err != nil {
		return err
	}
	return c.w.Flush()
}

// Get fetches key into buf.
func (c *Conn) Get(key string, buf []byte) (mcmeta.Info, error) {
	if err := c.w.WriteGet(key, 0); err != nil {
		return mcmeta.Info{}, err
	}
	if err := c.flush(); err != nil {
		return mcmeta.Info{}, err
	}
	if err := c.applyReadDeadline(); err != nil {
		return mcmeta.Info{}, err
	}
	return c.r.ReadGet(buf)
}

// Touch refreshes key's TTL via "mg <key> Tttl".
func (c *Conn) Touch(key string, ttl uint32) error {
	if err := c.w.WriteTouch(key, ttl); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.ReadTouch()
}

// SetParams groups ms's optional fields.
type SetParams struct {
	TTL    uint32
	Flags  uint32
	Cas    uint64
	HasCas bool
	Mode   mcmeta.SetMode
}

// Set stores key=value per params.
func (c *Conn) Set(key string, value []byte, params SetParams) error {
	if err := c.w.WriteSet(key, value, params.TTL, params.Flags, params.Cas, params.HasCas, params.Mode); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.ReadSet()
}

// Delete removes key.
func (c *Conn) Delete(key string) error {
	if err := c.w.WriteDelete(key); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.ReadDelete()
}

// Arithmetic applies delta to key, incrementing unless decrement is
// set, and returns the new value.
func (c *Conn) Arithmetic(key string, delta uint64, decrement bool) (uint64, error) {
	if err := c.w.WriteArithmetic(key, delta, decrement); err != nil {
		return 0, err
	}
	if err := c.flush(); err != nil {
		return 0, err
	}
	if err := c.applyReadDeadline(); err != nil {
		return 0, err
	}
	return c.r.ReadArithmetic()
}

// FlushAll clears every key on the server.
func (c *Conn) FlushAll() error {
	if err := c.w.WriteFlushAll(); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}
	if err := c.applyReadDeadline(); err != nil {
		return err
	}
	return c.r.ReadFlushAll()
}

// Version reports the server's version string.
func (c *Conn) Version() (string, error) {
	if err := c.w.WriteVersion(); err != nil {
		return "", err
	}
	if err := c.flush(); err != nil {
		return "", err
	}
	if err := c.applyReadDeadline(); err != nil {
		return "", err
	}
	return c.r.ReadVersion()
}
