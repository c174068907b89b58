package ctxsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock(context.Background()))
	m.Unlock()
}

func TestLockBlocksUntilUnlock(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock(context.Background()))

	unlocked := make(chan struct{})
	go func() {
		require.NoError(t, m.Lock(context.Background()))
		close(unlocked)
	}()

	select {
	case <-unlocked:
		t.Fatal("second Lock returned before Unlock")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock()
	select {
	case <-unlocked:
	case <-time.After(time.Second):
		t.Fatal("second Lock never returned after Unlock")
	}
}

func TestLockRespectsCancellation(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockUncancellableWaitsForUnlock(t *testing.T) {
	m := NewMutex()
	m.LockUncancellable()

	done := make(chan struct{})
	go func() {
		m.LockUncancellable()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("LockUncancellable returned before Unlock")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LockUncancellable never returned after Unlock")
	}
}
