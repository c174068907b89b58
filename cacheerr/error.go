// Package cacheerr defines the closed error taxonomy shared by the
// redis and memcache clients: a fixed set of failure kinds plus the
// is_resumable predicate that decides whether a connection survives
// the failure or must be torn down.
package cacheerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a class of failure. The zero Kind is never returned
// by either client.
type Kind int

const (
	_ Kind = iota

	// ConnectionFailed covers TCP connect and connect-timeout failures.
	ConnectionFailed
	// ReadFailed covers I/O failures while reading a response.
	ReadFailed
	// WriteFailed covers I/O failures while writing a command.
	WriteFailed
	// EndOfStream means the peer closed the connection mid-response.
	EndOfStream
	// ProtocolError means the response bytes did not match the wire
	// framing rules (short line, missing CRLF, unknown reply tag, ...).
	ProtocolError
	// UnexpectedType means the framing was well-formed but of the
	// wrong kind for the call that issued it (e.g. an array reply to
	// exec_integer).
	UnexpectedType
	// ValueTooLarge means a bulk reply's declared size exceeds the
	// caller-supplied buffer.
	ValueTooLarge
	// InvalidCharacter means an integer reply contained a non-digit.
	InvalidCharacter
	// Overflow means an integer reply did not fit the target width.
	Overflow
	// RedisError means the server replied with a RESP2 "-ERR ..." line.
	// Resumable: the connection is still correctly framed.
	RedisError
	// NotStored is memcached "NS": an add/replace precondition failed.
	// Resumable.
	NotStored
	// Exists is memcached "EX": a CAS precondition failed. Resumable.
	Exists
	// NotFound is memcached "EN"/"NF": a get/delete/arithmetic miss.
	// Resumable.
	NotFound
	// ServerError is memcached "SERVER_ERROR ...". Resumable.
	ServerError
	// TooManyKeys is a local precondition: more than 64 keys were
	// passed to a batch operation. No I/O occurred.
	TooManyKeys
	// InvalidServer is a local precondition: a "host:port" string
	// failed to parse.
	InvalidServer
	// NoServers is a local precondition: a memcached client has no
	// configured servers.
	NoServers
)

var names = map[Kind]string{
	ConnectionFailed: "connection_failed",
	ReadFailed:       "read_failed",
	WriteFailed:      "write_failed",
	EndOfStream:      "end_of_stream",
	ProtocolError:    "protocol_error",
	UnexpectedType:   "unexpected_type",
	ValueTooLarge:    "value_too_large",
	InvalidCharacter: "invalid_character",
	Overflow:         "overflow",
	RedisError:       "redis_error",
	NotStored:        "not_stored",
	Exists:           "exists",
	NotFound:         "not_found",
	ServerError:      "server_error",
	TooManyKeys:      "too_many_keys",
	InvalidServer:    "invalid_server",
	NoServers:        "no_servers",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Resumable reports whether a connection that failed with this Kind of
// error is still correctly framed and may be returned to its pool.
// This is the core's is_resumable predicate: it is a pure function of
// the Kind, never of the wrapped cause.
func (k Kind) Resumable() bool {
	switch k {
	case RedisError, NotStored, Exists, NotFound, ServerError:
		return true
	default:
		return false
	}
}

// Error is the concrete error value returned by both clients. Msg
// carries server-supplied text for RedisError/ServerError; err carries
// a wrapped concrete cause (via github.com/pkg/errors) for the I/O
// kinds, and is nil for purely local or protocol-level failures.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

// New builds an Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error that carries cause as its wrapped error, stamped
// with a stack trace via pkg/errors so the original failure site is
// still visible in logs.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return &Error{Kind: kind}
	}
	return &Error{Kind: kind, err: errors.WithStack(cause)}
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.err)
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.err
}

// Resumable reports whether err is a *Error whose Kind is resumable.
// A nil or foreign error is never resumable.
func Resumable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind.Resumable()
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
