package memcache

import (
	"context"

	"go.uber.org/zap"

	"github.com/lalinsky/gocache/internal/ctxsync"
)

// Pool is a bounded idle-connection list for one memcached server,
// identical in shape to package redis's Pool.
type Pool struct {
	addr string
	opts Options

	mu        *ctxsync.Mutex
	idleHead  *Conn
	idleCount int

	log *zap.Logger
}

func newPool(addr string, opts Options) *Pool {
	return &Pool{
		addr: addr,
		opts: opts,
		mu:   ctxsync.NewMutex(),
		log:  opts.Logger,
	}
}

// Acquire returns an idle connection if one is available, otherwise
// dials a new one.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if err := p.mu.Lock(ctx); err != nil {
		return nil, err
	}
	if p.idleHead != nil {
		c := p.idleHead
		p.idleHead = c.next
		c.next = nil
		p.idleCount--
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := dial(p.addr, p.opts)
	if err != nil {
		return nil, err
	}
	p.log.Debug("memcache: connected", zap.String("addr", p.addr))
	return c, nil
}

// Release returns c to the idle list when ok is true and the list has
// spare capacity; otherwise c is closed.
func (p *Pool) Release(c *Conn, ok bool) {
	if !ok {
		c.Close()
		return
	}
	p.mu.LockUncancellable()
	if p.idleCount >= p.opts.MaxIdle {
		p.mu.Unlock()
		c.Close()
		return
	}
	c.next = p.idleHead
	p.idleHead = c
	p.idleCount++
	p.mu.Unlock()
}

// Close drains the idle list, closing every connection in it.
func (p *Pool) Close() error {
	p.mu.LockUncancellable()
	defer p.mu.Unlock()
	var firstErr error
	for n := p.idleHead; n != nil; {
		next := n.next
		n.next = nil
		if err := n.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		n = next
	}
	p.idleHead = nil
	p.idleCount = 0
	return firstErr
}

// IdleCount reports the current idle-list length, for tests.
func (p *Pool) IdleCount() int {
	p.mu.LockUncancellable()
	defer p.mu.Unlock()
	return p.idleCount
}

// IsEmpty reports whether the idle list is empty, for tests.
func (p *Pool) IsEmpty() bool {
	return p.IdleCount() == 0
}
