package resp

import (
	"bufio"
	"io"
	"strconv"

	"github.com/lalinsky/gocache/cacheerr"
)

// Reader decodes RESP2 replies from a buffered reader, streaming bulk
// payloads directly into caller-owned buffers.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps a buffered reader for response decoding.
func NewReader(br *bufio.Reader) *Reader {
	return &Reader{br: br}
}

// readLine reads one CRLF-terminated reply line and splits it into its
// leading type tag and body. Every response line must end with "\r\n";
// a line shorter than 3 bytes (tag + CRLF) is a ProtocolError.
func (r *Reader) readLine() (tag byte, body []byte, err error) {
	line, err := r.br.ReadSlice('\n')
	if err != nil {
		if err == io.EOF {
			return 0, nil, cacheerr.Wrap(cacheerr.EndOfStream, err)
		}
		return 0, nil, cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	if len(line) < 3 || line[len(line)-2] != '\r' {
		return 0, nil, cacheerr.New(cacheerr.ProtocolError, "malformed reply line")
	}
	return line[0], line[1 : len(line)-2], nil
}

func parseInt(body []byte) (int64, error) {
	n, err := strconv.ParseInt(string(body), 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, cacheerr.New(cacheerr.Overflow, string(body))
		}
		return 0, cacheerr.New(cacheerr.InvalidCharacter, string(body))
	}
	return n, nil
}

// readN reads exactly n bytes into dst followed by the mandatory
// trailing CRLF, which is consumed but not copied into dst.
func (r *Reader) readN(dst []byte, n int) error {
	if _, err := io.ReadFull(r.br, dst[:n]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return cacheerr.Wrap(cacheerr.EndOfStream, err)
		}
		return cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	var crlf [2]byte
	if _, err := io.ReadFull(r.br, crlf[:]); err != nil {
		return cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return cacheerr.New(cacheerr.ProtocolError, "bulk string missing trailing CRLF")
	}
	return nil
}

// discardN discards exactly n payload bytes plus the trailing CRLF,
// used by ExecOkOrNil to drain a bulk reply it does not surface.
func (r *Reader) discardN(n int) error {
	if _, err := r.br.Discard(n + 2); err != nil {
		return cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	return nil
}

func redisErr(body []byte) error {
	return &cacheerr.Error{Kind: cacheerr.RedisError, Msg: string(body)}
}

// ExecSimpleString reads a "+..." / "-..." reply. A simple string's
// body is returned as success; any other tag is UnexpectedType.
func (r *Reader) ExecSimpleString() ([]byte, error) {
	tag, body, err := r.readLine()
	if err != nil {
		return nil, err
	}
	switch tag {
	case '+':
		return body, nil
	case '-':
		return nil, redisErr(body)
	default:
		return nil, cacheerr.New(cacheerr.UnexpectedType, "expected simple string")
	}
}

// ExecInteger reads a ":N" reply.
func (r *Reader) ExecInteger() (int64, error) {
	tag, body, err := r.readLine()
	if err != nil {
		return 0, err
	}
	switch tag {
	case ':':
		return parseInt(body)
	case '-':
		return 0, redisErr(body)
	default:
		return 0, cacheerr.New(cacheerr.UnexpectedType, "expected integer")
	}
}

// ExecBulkString reads a "$N" reply, copying N bytes into buf. It
// fails ValueTooLarge if N exceeds len(buf). A "$-1" null reply
// returns (nil, nil).
func (r *Reader) ExecBulkString(buf []byte) ([]byte, error) {
	tag, body, err := r.readLine()
	if err != nil {
		return nil, err
	}
	switch tag {
	case '$':
		n, err := parseInt(body)
		if err != nil {
			return nil, err
		}
		if n == -1 {
			return nil, nil
		}
		if n < 0 {
			return nil, cacheerr.New(cacheerr.ProtocolError, "negative bulk length")
		}
		if int64(len(buf)) < n {
			return nil, cacheerr.New(cacheerr.ValueTooLarge, "")
		}
		if err := r.readN(buf, int(n)); err != nil {
			return nil, err
		}
		return buf[:n], nil
	case '-':
		return nil, redisErr(body)
	default:
		return nil, cacheerr.New(cacheerr.UnexpectedType, "expected bulk string")
	}
}

// ExecBulkStringAlloc reads a "$N" reply like ExecBulkString, but
// obtains its backing storage from alloc (typically an Arena) instead
// of a caller-supplied fixed buffer, since a Pipeline does not know
// reply sizes ahead of time. A "$-1" null reply returns (nil, nil).
func (r *Reader) ExecBulkStringAlloc(alloc func(n int) []byte) ([]byte, error) {
	tag, body, err := r.readLine()
	if err != nil {
		return nil, err
	}
	switch tag {
	case '$':
		n, err := parseInt(body)
		if err != nil {
			return nil, err
		}
		if n == -1 {
			return nil, nil
		}
		if n < 0 {
			return nil, cacheerr.New(cacheerr.ProtocolError, "negative bulk length")
		}
		buf := alloc(int(n))
		if err := r.readN(buf, int(n)); err != nil {
			return nil, err
		}
		return buf, nil
	case '-':
		return nil, redisErr(body)
	default:
		return nil, cacheerr.New(cacheerr.UnexpectedType, "expected bulk string")
	}
}

// ExecOkOrNil reads a reply for commands whose success is signalled
// either by "+OK", a "$-1" null (NX/XX precondition not met), or a
// "$N" bulk payload that is discarded (SET ... GET returning the old
// value). All three count as success; only "-..." is an error.
func (r *Reader) ExecOkOrNil() error {
	tag, body, err := r.readLine()
	if err != nil {
		return err
	}
	switch tag {
	case '+':
		return nil
	case '$':
		n, err := parseInt(body)
		if err != nil {
			return err
		}
		if n == -1 {
			return nil
		}
		if n < 0 {
			return cacheerr.New(cacheerr.ProtocolError, "negative bulk length")
		}
		return r.discardN(int(n))
	case '-':
		return redisErr(body)
	default:
		return cacheerr.New(cacheerr.UnexpectedType, "expected OK or nil")
	}
}

// DiscardBulkString reads a "$N" reply and discards its payload
// unconditionally, regardless of size. PING with a message uses this
// instead of ExecBulkString: the caller never wants the echoed
// payload, only confirmation that one came back framed correctly.
func (r *Reader) DiscardBulkString() error {
	tag, body, err := r.readLine()
	if err != nil {
		return err
	}
	switch tag {
	case '$':
		n, err := parseInt(body)
		if err != nil {
			return err
		}
		if n == -1 {
			return nil
		}
		if n < 0 {
			return cacheerr.New(cacheerr.ProtocolError, "negative bulk length")
		}
		return r.discardN(int(n))
	case '-':
		return redisErr(body)
	default:
		return cacheerr.New(cacheerr.UnexpectedType, "expected bulk string")
	}
}

// ReadValue reads one arbitrary RESP2 reply as a generic Value. The
// Pipeline and the curated command surface do not use it; they decode
// each reply with the typed Exec* readers.
func (r *Reader) ReadValue() (Value, error) {
	tag, body, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case '+':
		return Value{Kind: KindSimpleString, Str: body}, nil
	case '-':
		return Value{Kind: KindError, Str: body}, nil
	case ':':
		n, err := parseInt(body)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindInteger, Int: n}, nil
	case '$':
		n, err := parseInt(body)
		if err != nil {
			return Value{}, err
		}
		if n == -1 {
			return Value{Kind: KindBulkString, Bulk: nil}, nil
		}
		buf := make([]byte, n)
		if err := r.readN(buf, int(n)); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBulkString, Bulk: buf}, nil
	case '*':
		n, err := parseInt(body)
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{Kind: KindArray, Array: nil}, nil
		}
		arr := make([]Value, n)
		for i := range arr {
			v, err := r.ReadValue()
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{Kind: KindArray, Array: arr}, nil
	default:
		return Value{}, cacheerr.New(cacheerr.ProtocolError, "unknown reply tag")
	}
}
