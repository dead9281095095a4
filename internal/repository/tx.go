package repository

import (
	"context"
	"database/sql"
)

type txKey struct{}

// querier is the subset of *sql.DB and *sql.Tx used by the repositories.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the connection pool and hands out transaction scopes.  The
// individual repositories share it so that a single transaction can span
// several tables.
type Store struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewStore wraps db.  Transactions use the driver's default isolation
// level, REPEATABLE READ on InnoDB; seat rows are additionally read with
// SELECT ... FOR UPDATE so the check and the write see the same row.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a transaction carried by the context.  The
// transaction is committed when fn returns nil and rolled back on every
// other exit path, including panics.  Nested calls join the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, s.opts)
	if err != nil {
		return classify("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	committed = true
	return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// conn returns the transaction in ctx, or the pool when there is none.
func (s *Store) conn(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}
