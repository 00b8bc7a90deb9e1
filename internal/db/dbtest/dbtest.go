// Package dbtest provides an in-memory db.Pool that records how its
// connections are checked out and which target ran each statement.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"winterbot/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoQuerier is returned by statements when the Pool has no backing Querier.
var ErrNoQuerier = errors.New("dbtest: no querier configured")

// Pool is a fake db.Pool. Statements are forwarded to Querier (a pgxmock pool,
// for instance), both when run pool-direct and through an acquired Conn.
type Pool struct {
	Querier db.Querier
	// AcquireErr makes every Acquire fail with this error.
	AcquireErr error
	// Exhausted makes Acquire block until its context is done.
	Exhausted bool

	mu       sync.Mutex
	acquired int
	released int
	calls    []string
}

func (p *Pool) record(target, method string) {
	p.mu.Lock()
	p.calls = append(p.calls, target+"."+method)
	p.mu.Unlock()
}

// Calls lists "target.Method" for every statement, where target is "pool" or "conn<N>".
func (p *Pool) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Acquired is the number of successful Acquire calls.
func (p *Pool) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Released is the number of Release calls on handed out connections.
func (p *Pool) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Outstanding is the number of connections currently checked out.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired - p.released
}

func (p *Pool) Acquire(ctx context.Context) (db.Conn, error) {
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	if p.Exhausted {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	return &Conn{pool: p, name: fmt.Sprintf("conn%d", p.acquired)}, nil
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return exec(ctx, p, "pool", sql, args)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return query(ctx, p, "pool", sql, args)
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return queryRow(ctx, p, "pool", sql, args)
}

func (p *Pool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return sendBatch(ctx, p, "pool", b)
}

func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return begin(ctx, p, "pool")
}

// Conn is a connection handed out by Pool.
type Conn struct {
	pool     *Pool
	name     string
	released bool
}

// Name identifies the connection in Pool.Calls.
func (c *Conn) Name() string { return c.name }

func (c *Conn) Release() {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	if c.released {
		panic("dbtest: " + c.name + " released twice")
	}
	c.released = true
	c.pool.released++
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return exec(ctx, c.pool, c.name, sql, args)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return query(ctx, c.pool, c.name, sql, args)
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return queryRow(ctx, c.pool, c.name, sql, args)
}

func (c *Conn) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return sendBatch(ctx, c.pool, c.name, b)
}

func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	return begin(ctx, c.pool, c.name)
}

func exec(ctx context.Context, p *Pool, target, sql string, args []any) (pgconn.CommandTag, error) {
	p.record(target, "Exec")
	if p.Querier == nil {
		return pgconn.CommandTag{}, ErrNoQuerier
	}
	return p.Querier.Exec(ctx, sql, args...)
}

func query(ctx context.Context, p *Pool, target, sql string, args []any) (pgx.Rows, error) {
	p.record(target, "Query")
	if p.Querier == nil {
		return nil, ErrNoQuerier
	}
	return p.Querier.Query(ctx, sql, args...)
}

func queryRow(ctx context.Context, p *Pool, target, sql string, args []any) pgx.Row {
	p.record(target, "QueryRow")
	if p.Querier == nil {
		return errRow{ErrNoQuerier}
	}
	return p.Querier.QueryRow(ctx, sql, args...)
}

func sendBatch(ctx context.Context, p *Pool, target string, b *pgx.Batch) pgx.BatchResults {
	p.record(target, "SendBatch")
	if p.Querier == nil {
		return &Batch{Err: ErrNoQuerier, Size: b.Len()}
	}
	return p.Querier.SendBatch(ctx, b)
}

func begin(ctx context.Context, p *Pool, target string) (pgx.Tx, error) {
	p.record(target, "Begin")
	if p.Querier == nil {
		return nil, ErrNoQuerier
	}
	return p.Querier.Begin(ctx)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// Batch is a canned pgx.BatchResults. Every queued statement returns Err.
type Batch struct {
	Err    error
	Size   int
	Execs  int
	Closed bool
}

func (b *Batch) Exec() (pgconn.CommandTag, error) {
	b.Execs++
	return pgconn.NewCommandTag("INSERT 0 1"), b.Err
}

func (b *Batch) Query() (pgx.Rows, error) { return nil, b.Err }

func (b *Batch) QueryRow() pgx.Row { return errRow{b.Err} }

func (b *Batch) Close() error {
	b.Closed = true
	return b.Err
}
