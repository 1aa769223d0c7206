package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by all adapters when a record is absent.
var ErrNotFound = pgx.ErrNoRows

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, so the
// same repository code runs inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the per-entity repositories behind one gateway.
type Store interface {
	Tickets() TicketRepository
	Messages() MessageRepository
	Activity() ActivityLogRepository
	Users() UserRepository

	// WithinTx runs fn against a transactional view of the store when
	// the backend supports transactions. The in-memory adapter runs fn
	// directly, so its multi-write sequences keep the original
	// partial-failure window.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	db   DB
}

// NewPostgresStore builds the Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Tickets() TicketRepository       { return &ticketRepository{db: s.db} }
func (s *pgStore) Messages() MessageRepository     { return &messageRepository{db: s.db} }
func (s *pgStore) Activity() ActivityLogRepository { return &activityLogRepository{db: s.db} }
func (s *pgStore) Users() UserRepository           { return &userRepository{db: s.db} }

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already inside a transaction; nested calls join it
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	txStore := &pgStore{db: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
