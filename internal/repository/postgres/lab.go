package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

type LabRepository struct {
	db querier
}

// GetByID получает лабораторию по ID
func (r *LabRepository) GetByID(ctx context.Context, id int64) (*model.Laboratory, error) {
	query := `
		SELECT id, name, capacity, is_active, storage_only, created_at
		FROM laboratories
		WHERE id = $1
	`

	var lab model.Laboratory
	err := r.db.QueryRow(ctx, query, id).Scan(
		&lab.ID,
		&lab.Name,
		&lab.Capacity,
		&lab.IsActive,
		&lab.StorageOnly,
		&lab.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get laboratory by id: %w", err)
	}

	return &lab, nil
}

// ListActive получает все активные небазовые лаборатории
func (r *LabRepository) ListActive(ctx context.Context) ([]*model.Laboratory, error) {
	query := `
		SELECT id, name, capacity, is_active, storage_only, created_at
		FROM laboratories
		WHERE is_active = TRUE AND storage_only = FALSE
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active laboratories: %w", err)
	}
	defer rows.Close()

	var labs []*model.Laboratory
	for rows.Next() {
		var lab model.Laboratory
		err := rows.Scan(
			&lab.ID,
			&lab.Name,
			&lab.Capacity,
			&lab.IsActive,
			&lab.StorageOnly,
			&lab.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan laboratory: %w", err)
		}
		labs = append(labs, &lab)
	}

	return labs, nil
}

// Lock захватывает строку лаборатории до конца транзакции.
// Вне транзакции блокировка бессмысленна и сразу отпускается — вызывать
// только внутри Store.WithinTx.
func (r *LabRepository) Lock(ctx context.Context, id int64) error {
	query := `SELECT id FROM laboratories WHERE id = $1 FOR UPDATE`

	var lockedID int64
	err := r.db.QueryRow(ctx, query, id).Scan(&lockedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &model.NotFoundError{Entity: "laboratory", ID: id}
		}
		return fmt.Errorf("lock laboratory: %w", err)
	}

	return nil
}
