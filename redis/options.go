package redis

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxIdle       = 2
	defaultBufferSize    = 4096
	defaultRetryAttempts = 2
	defaultRetryInterval = 0
)

// Options holds the tunables recognized by dial, Pool and Client
// construction. New starts from the documented defaults and each
// Option overwrites its field with the value given, zero included.
type Options struct {
	MaxIdle         int
	ReadBufferSize  int
	WriteBufferSize int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	RetryAttempts int
	RetryInterval time.Duration

	Logger *zap.Logger
}

// Option mutates Options during Client construction, following the
// functional-options style used across the wider cache-client
// ecosystem (e.g. redis_autopipeline's WithCacheTTL/WithMaxSize).
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		MaxIdle:         defaultMaxIdle,
		ReadBufferSize:  defaultBufferSize,
		WriteBufferSize: defaultBufferSize,
		RetryAttempts:   defaultRetryAttempts,
		RetryInterval:   defaultRetryInterval,
		Logger:          zap.NewNop(),
	}
}

// WithMaxIdle sets the per-pool idle connection cap.
func WithMaxIdle(n int) Option { return func(o *Options) { o.MaxIdle = n } }

// WithReadBufferSize sets the per-connection read buffer size.
func WithReadBufferSize(n int) Option { return func(o *Options) { o.ReadBufferSize = n } }

// WithWriteBufferSize sets the per-connection write buffer size.
func WithWriteBufferSize(n int) Option { return func(o *Options) { o.WriteBufferSize = n } }

// WithConnectTimeout bounds TCP connection establishment.
func WithConnectTimeout(d time.Duration) Option { return func(o *Options) { o.ConnectTimeout = d } }

// WithReadTimeout bounds every read on a connection.
func WithReadTimeout(d time.Duration) Option { return func(o *Options) { o.ReadTimeout = d } }

// WithWriteTimeout bounds every write (including flush) on a connection.
func WithWriteTimeout(d time.Duration) Option { return func(o *Options) { o.WriteTimeout = d } }

// WithRetryAttempts sets how many times a non-resumable failure is
// retried before the error is surfaced to the caller.
func WithRetryAttempts(n int) Option { return func(o *Options) { o.RetryAttempts = n } }

// WithRetryInterval sets the back-off between retry attempts.
func WithRetryInterval(d time.Duration) Option { return func(o *Options) { o.RetryInterval = d } }

// WithLogger attaches a zap logger; debug-level events (connect,
// retry back-off, connection destroy) are logged through it. Nothing
// is ever logged at error level by the client itself.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
