package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
)

// WriteFunc performs database writes inside a batch transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers writes and commits them in transactions of up to size
// writes on a background goroutine. A failing write rolls back its whole batch.
type BatchWriter struct {
	conn *sql.DB
	size int

	mu      sync.Mutex
	pending []WriteFunc
	closed  bool

	batches chan []WriteFunc
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	committed atomic.Int64

	// OnError, if set, is called for every failed or dropped batch.
	OnError func(error)

	errMu    sync.Mutex
	firstErr error
}

// NewBatchWriter starts a writer committing to conn. A nil conn runs the
// writes with a nil transaction.
func NewBatchWriter(conn *sql.DB, size int) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		conn:    conn,
		size:    size,
		pending: make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		ctx:     ctx,
		cancel:  cancel,
	}
	bw.wg.Add(1)
	go bw.commitLoop()
	return bw
}

// Submit enqueues w, handing a full batch to the committer. It blocks while
// the committer is behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.pending = append(bw.pending, w)
	if len(bw.pending) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.pending) == 0 {
		return
	}
	batch := bw.pending
	bw.pending = make([]WriteFunc, 0, bw.size)

	select {
	case bw.batches <- batch:
	case <-bw.ctx.Done():
		bw.fail(fmt.Errorf("batch writer: dropping batch of %d writes: %w", len(batch), bw.ctx.Err()))
	}
}

// Abort drops every batch not yet committed. Close must still be called.
func (bw *BatchWriter) Abort() {
	bw.cancel()
}

// Committed returns the number of writes committed so far.
func (bw *BatchWriter) Committed() int64 {
	return bw.committed.Load()
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if err := bw.ctx.Err(); err != nil {
			bw.fail(fmt.Errorf("batch writer: dropping batch of %d writes: %w", len(batch), err))
			continue
		}
		if err := bw.commit(batch); err != nil {
			bw.fail(err)
			continue
		}
		bw.committed.Add(int64(len(batch)))
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	ctx := context.Background()
	if bw.conn == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch of %d writes: %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	if bw.firstErr == nil {
		bw.firstErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

// Close flushes pending writes, waits for the committer and returns the
// first error any batch hit.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.flushLocked()
	bw.mu.Unlock()

	close(bw.batches)
	bw.wg.Wait()
	bw.cancel()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
