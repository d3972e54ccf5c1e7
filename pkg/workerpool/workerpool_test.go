package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsJobs(t *testing.T) {
	p := New(4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	var ran int32
	jobs := 100
	for i := 0; i < jobs; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		require.NoError(t, err)
	}
	p.Close()

	assert.Equal(t, int32(jobs), atomic.LoadInt32(&ran))
	assert.NoError(t, p.Err())
}

func TestPoolKeepsFirstError(t *testing.T) {
	p := New(1, 4)
	p.Start(context.Background())
	first := errors.New("first")
	require.NoError(t, p.Submit(func(ctx context.Context) error { return first }))
	require.NoError(t, p.Submit(func(ctx context.Context) error { return errors.New("second") }))
	p.Close()

	assert.ErrorIs(t, p.Err(), first)
}

func TestSubmitAfterClose(t *testing.T) {
	p := New(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	p.Close()
	cancel()
	err := p.Submit(func(ctx context.Context) error { return nil })
	assert.Equal(t, ErrPoolClosed, err)
}

func TestSubmitRecoversFromCloseRace(t *testing.T) {
	p := New(1, 1)
	// Workers are not started, so the second Submit blocks on the full queue.
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(func(ctx context.Context) error { return nil })
	}()

	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		assert.Equal(t, ErrPoolClosed, err)
	case <-time.After(time.Second):
		t.Fatal("blocked Submit did not return after Close")
	}
}

func TestSubmitCtxCanceled(t *testing.T) {
	p := New(1, 1)
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.SubmitCtx(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	p.Close()
}

func TestContextCancellationStopsWorkers(t *testing.T) {
	p := New(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	done := make(chan struct{}, 1)
	go func() {
		p.Close()
		done <- struct{}{}
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("Close blocked after context cancellation")
	}
}
