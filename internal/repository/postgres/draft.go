package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

type DraftRepository struct {
	db querier
}

const draftColumns = `
	id, requester_id, lab_id, date, start_minutes, end_minutes,
	subject, description, student_count, materials, created_at, updated_at
`

func scanDraft(row pgx.Row) (*model.Draft, error) {
	var d model.Draft
	err := row.Scan(
		&d.ID,
		&d.RequesterID,
		&d.LabID,
		&d.Date,
		&d.StartMinutes,
		&d.EndMinutes,
		&d.Subject,
		&d.Description,
		&d.StudentCount,
		&d.Materials,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create создаёт черновик
func (r *DraftRepository) Create(ctx context.Context, d *model.Draft) error {
	query := `
		INSERT INTO drafts (
			requester_id, lab_id, date, start_minutes, end_minutes,
			subject, description, student_count, materials
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		d.RequesterID,
		d.LabID,
		d.Date,
		d.StartMinutes,
		d.EndMinutes,
		d.Subject,
		d.Description,
		d.StudentCount,
		d.Materials,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}

	return nil
}

// GetByID получает черновик по ID
func (r *DraftRepository) GetByID(ctx context.Context, id int64) (*model.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	d, err := scanDraft(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get draft by id: %w", err)
	}

	return d, nil
}

// Update обновляет черновик
func (r *DraftRepository) Update(ctx context.Context, d *model.Draft) error {
	query := `
		UPDATE drafts
		SET lab_id = $1, date = $2, start_minutes = $3, end_minutes = $4,
		    subject = $5, description = $6, student_count = $7, materials = $8,
		    updated_at = NOW()
		WHERE id = $9
	`

	result, err := r.db.Exec(
		ctx, query,
		d.LabID,
		d.Date,
		d.StartMinutes,
		d.EndMinutes,
		d.Subject,
		d.Description,
		d.StudentCount,
		d.Materials,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "draft", ID: d.ID}
	}

	return nil
}

// Delete удаляет черновик
func (r *DraftRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM drafts WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "draft", ID: id}
	}

	return nil
}

// ListByRequester получает черновики заявителя
func (r *DraftRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*model.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE requester_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list drafts by requester: %w", err)
	}
	defer rows.Close()

	var drafts []*model.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}

	return drafts, nil
}

// DeleteDatedBefore удаляет черновики с датой раньше cutoff
func (r *DraftRepository) DeleteDatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM drafts WHERE date IS NOT NULL AND date < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale drafts: %w", err)
	}

	return result.RowsAffected(), nil
}
