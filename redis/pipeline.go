package redis

import (
	"context"

	"github.com/lalinsky/gocache/cacheerr"
)

// maxPipelineOps bounds the number of commands a Pipeline can queue
// before Exec must be called.
const maxPipelineOps = 64

// pendingOp records which Reader method Exec must call to decode the
// reply at this queue position.
type pendingOp int

const (
	pendingSimpleString pendingOp = iota
	pendingInteger
	pendingBulkString
	pendingOkOrNil
)

// ResultKind tags the active field of a Result.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultInteger
	ResultBulkString
	ResultError
)

// Result is one Pipeline.Exec outcome, shaped like the command that
// produced it. Bulk is backed by the Arena passed to Exec.
type Result struct {
	Kind    ResultKind
	Integer int64
	Bulk    []byte // nil for a null bulk reply
	Err     error  // set when Kind == ResultError
}

// Arena backs every BulkString Result returned by one Exec call, so
// the whole batch can be released in a single step by discarding the
// Arena instead of each Result's payload individually.
type Arena struct {
	buf []byte
}

// NewArena preallocates an Arena with the given byte capacity.
func NewArena(capacity int) *Arena {
	return &Arena{buf: make([]byte, 0, capacity)}
}

func (a *Arena) alloc(n int) []byte {
	if cap(a.buf)-len(a.buf) < n {
		grown := make([]byte, len(a.buf), 2*(len(a.buf)+n)+64)
		copy(grown, a.buf)
		a.buf = grown
	}
	start := len(a.buf)
	a.buf = a.buf[:start+n]
	return a.buf[start : start+n]
}

// pipelineState tracks the building -> executing -> exhausted cycle.
// A Pipeline may be reused to build a new batch after Exec.
type pipelineState int

const (
	stateBuilding pipelineState = iota
	stateExecuting
	stateExhausted
)

// Pipeline batches several commands on one borrowed Connection,
// flushing once and demultiplexing the replies in request order. It
// is not safe for concurrent use.
type Pipeline struct {
	conn    *Conn
	pool    *Pool // nil if the caller supplied a standalone Conn
	pending []pendingOp
	state   pipelineState
	healthy bool
}

// NewPipeline acquires a connection from c's pool and returns a
// Pipeline bound to it. Close must be called exactly once to return
// the connection to the pool (or destroy it, if the pipeline ended
// unhealthy).
func (c *Client) NewPipeline(ctx context.Context) (*Pipeline, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Pipeline{conn: conn, pool: c.pool, healthy: true}, nil
}

// Close returns the underlying connection to its pool, or destroys it
// if the pipeline ended unhealthy (a non-resumable read error during
// the last Exec).
func (p *Pipeline) Close() error {
	if p.pool != nil {
		p.pool.Release(p.conn, p.healthy)
	}
	return nil
}

func (p *Pipeline) queue(op pendingOp, args ...[]byte) error {
	if p.state == stateExecuting {
		return cacheerr.New(cacheerr.ProtocolError, "pipeline is mid-exec")
	}
	if p.state == stateExhausted {
		p.pending = p.pending[:0]
		p.state = stateBuilding
	}
	if len(p.pending) >= maxPipelineOps {
		return cacheerr.New(cacheerr.TooManyKeys, "pipeline queue full")
	}
	if err := p.conn.queueCommand(args...); err != nil {
		p.healthy = false
		return err
	}
	p.pending = append(p.pending, op)
	return nil
}

// Get enqueues a GET, no flush.
func (p *Pipeline) Get(key string) error {
	return p.queue(pendingBulkString, cmdGet, []byte(key))
}

// Set enqueues a SET, no flush.
func (p *Pipeline) Set(key, value string, opts SetOptions) error {
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
	return p.queue(pendingOkOrNil, argv[:n]...)
}

// Del enqueues a DEL, no flush.
func (p *Pipeline) Del(keys ...string) error {
	if len(keys) > maxBatchKeys {
		return cacheerr.New(cacheerr.TooManyKeys, "")
	}
	var argv [maxBatchKeys + 1][]byte
	argv[0] = cmdDel
	for i, k := range keys {
		argv[i+1] = []byte(k)
	}
	return p.queue(pendingInteger, argv[:len(keys)+1]...)
}

// Incr enqueues an INCR, no flush.
func (p *Pipeline) Incr(key string) error {
	return p.queue(pendingInteger, cmdIncr, []byte(key))
}

// IncrBy enqueues an INCRBY, no flush.
func (p *Pipeline) IncrBy(key string, delta int64) error {
	var buf [32]byte
	return p.queue(pendingInteger, cmdIncrBy, []byte(key), appendInt(buf[:0], delta))
}

// Decr enqueues a DECR, no flush.
func (p *Pipeline) Decr(key string) error {
	return p.queue(pendingInteger, cmdDecr, []byte(key))
}

// Exists enqueues an EXISTS, no flush.
func (p *Pipeline) Exists(keys ...string) error {
	if len(keys) > maxBatchKeys {
		return cacheerr.New(cacheerr.TooManyKeys, "")
	}
	var argv [maxBatchKeys + 1][]byte
	argv[0] = cmdExists
	for i, k := range keys {
		argv[i+1] = []byte(k)
	}
	return p.queue(pendingInteger, argv[:len(keys)+1]...)
}

// Exec flushes every queued command once and reads exactly one reply
// per queued op, in order. A RedisError on a given slot becomes a
// ResultError and does not stop the batch — the connection is still
// correctly framed. Any other read error marks the Pipeline unhealthy
// (Close will then destroy the connection) and stops the batch early;
// already-decoded results are still returned.
func (p *Pipeline) Exec(arena *Arena) ([]Result, error) {
	if p.state == stateExecuting {
		return nil, cacheerr.New(cacheerr.ProtocolError, "pipeline already executing")
	}
	p.state = stateExecuting
	defer func() {
		p.state = stateExhausted
		p.pending = p.pending[:0]
	}()

	if err := p.conn.flush(); err != nil {
		p.healthy = false
		return nil, err
	}

	results := make([]Result, 0, len(p.pending))
	for _, op := range p.pending {
		if err := p.conn.applyReadDeadline(); err != nil {
			p.healthy = false
			return results, err
		}
		res, err := p.readOne(op, arena)
		if err != nil {
			if cacheerr.Resumable(err) {
				results = append(results, Result{Kind: ResultError, Err: err})
				continue
			}
			p.healthy = false
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) readOne(op pendingOp, arena *Arena) (Result, error) {
	switch op {
	case pendingSimpleString:
		s, err := p.conn.r.ExecSimpleString()
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultOK, Bulk: s}, nil
	case pendingInteger:
		n, err := p.conn.r.ExecInteger()
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultInteger, Integer: n}, nil
	case pendingBulkString:
		b, err := p.conn.r.ExecBulkStringAlloc(arena.alloc)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultBulkString, Bulk: b}, nil
	case pendingOkOrNil:
		if err := p.conn.r.ExecOkOrNil(); err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultOK}, nil
	default:
		return Result{}, cacheerr.New(cacheerr.ProtocolError, "unknown pending op")
	}
}
