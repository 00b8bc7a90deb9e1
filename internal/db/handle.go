package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultAcquireTimeout bounds how long Conn waits for a free pool connection.
const DefaultAcquireTimeout = 30 * time.Second

// ErrAcquireTimeout is returned when the pool yields no connection in time.
var ErrAcquireTimeout = errors.New("timed out acquiring a pooled connection")

// Handle runs statements for a single command invocation or HTTP request.
//
// By default every statement goes straight to the pool, which checks a
// connection out for just that statement. Once Conn (or Acquire) has been
// used, the handle keeps that one connection and routes every later statement
// to it until Release. A handle never holds more than one connection.
type Handle struct {
	pool Pool

	mu   sync.Mutex
	conn Conn
}

// NewHandle binds a handle to a shared pool. The pool is not owned by the handle.
func NewHandle(pool Pool) *Handle {
	return &Handle{pool: pool}
}

func (h *Handle) target() Querier {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		return h.conn
	}
	return h.pool
}

func (h *Handle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return h.target().Exec(ctx, sql, args...)
}

// ExecMany runs sql once per argument set in a single batch.
func (h *Handle) ExecMany(ctx context.Context, sql string, argSets [][]any) error {
	batch := &pgx.Batch{}
	for _, args := range argSets {
		batch.Queue(sql, args...)
	}

	br := h.target().SendBatch(ctx, batch)
	for range argSets {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

func (h *Handle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return h.target().Query(ctx, sql, args...)
}

func (h *Handle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return h.target().QueryRow(ctx, sql, args...)
}

func (h *Handle) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return h.target().SendBatch(ctx, b)
}

func (h *Handle) Begin(ctx context.Context) (pgx.Tx, error) {
	return h.target().Begin(ctx)
}

// Conn returns the cached connection, acquiring one first if needed.
// A non-positive timeout means DefaultAcquireTimeout.
func (h *Handle) Conn(ctx context.Context, timeout time.Duration) (Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		return h.conn, nil
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := h.pool.Acquire(actx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrAcquireTimeout, timeout, err)
		}
		return nil, err
	}
	h.conn = conn
	return conn, nil
}

// Acquired reports whether the handle currently holds a connection.
func (h *Handle) Acquired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// Release gives the cached connection back to the pool. It is a no-op when
// nothing is cached and may be called any number of times.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return
	}
	h.conn.Release()
	h.conn = nil
}

// Acquire prepares a scoped acquisition on the handle. Nothing is checked
// out until one of the Acquisition methods runs.
func (h *Handle) Acquire(timeout time.Duration) *Acquisition {
	return &Acquisition{handle: h, timeout: timeout}
}

// Acquisition is a pending checkout of the handle's connection.
type Acquisition struct {
	handle  *Handle
	timeout time.Duration
}

// Conn acquires (or reuses) the handle's connection and leaves it cached.
// The owner of the handle is responsible for the eventual Release.
func (a *Acquisition) Conn(ctx context.Context) (Conn, error) {
	return a.handle.Conn(ctx, a.timeout)
}

// Do acquires the handle's connection, runs fn with it and releases the
// handle afterwards, whatever fn returns or if it panics.
func (a *Acquisition) Do(ctx context.Context, fn func(Conn) error) error {
	conn, err := a.handle.Conn(ctx, a.timeout)
	if err != nil {
		return err
	}
	defer a.handle.Release()
	return fn(conn)
}

// Tx is Do with fn wrapped in a transaction on the acquired connection.
// The transaction commits when fn returns nil and rolls back otherwise.
func (a *Acquisition) Tx(ctx context.Context, fn func(pgx.Tx) error) error {
	return a.Do(ctx, func(conn Conn) error {
		return pgx.BeginFunc(ctx, conn, fn)
	})
}
