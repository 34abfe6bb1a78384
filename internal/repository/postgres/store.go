// Package postgres — реализация хранилища ядра на PostgreSQL (pgx).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/lab_booking/internal/repository"
)

// querier — общий знаменатель pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store — набор репозиториев поверх одного пула либо одной транзакции
type Store struct {
	pool *pgxpool.Pool
	db   querier

	labs     *LabRepository
	bookings *BookingRepository
	drafts   *DraftRepository
	comments *CommentRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool, pool)
}

func newStore(pool *pgxpool.Pool, db querier) *Store {
	return &Store{
		pool:     pool,
		db:       db,
		labs:     &LabRepository{db: db},
		bookings: &BookingRepository{db: db},
		drafts:   &DraftRepository{db: db},
		comments: &CommentRepository{db: db},
	}
}

func (s *Store) Labs() repository.LabRepository         { return s.labs }
func (s *Store) Bookings() repository.BookingRepository { return s.bookings }
func (s *Store) Drafts() repository.DraftRepository     { return s.drafts }
func (s *Store) Comments() repository.CommentRepository { return s.comments }

// WithinTx выполняет fn в транзакции. Повторный вызов внутри транзакции
// продолжает её — отдельные savepoint'ы ядру не нужны.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, inTx := s.db.(pgx.Tx); inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newStore(s.pool, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
