package postgres

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

type CommentRepository struct {
	db querier
}

// Create создаёт комментарий к заявке
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (booking_id, author_id, message, is_read)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.BookingID,
		c.AuthorID,
		c.Message,
		c.IsRead,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// ListByBooking получает комментарии заявки в порядке создания
func (r *CommentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*model.Comment, error) {
	query := `
		SELECT id, booking_id, author_id, message, is_read, created_at
		FROM comments
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list comments by booking: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var c model.Comment
		err := rows.Scan(
			&c.ID,
			&c.BookingID,
			&c.AuthorID,
			&c.Message,
			&c.IsRead,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, nil
}

// MarkRead отмечает комментарий прочитанным. Флаг меняется только в одну
// сторону, повторный вызов — no-op.
func (r *CommentRepository) MarkRead(ctx context.Context, id int64) error {
	query := `
		UPDATE comments
		SET is_read = TRUE
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark comment read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "comment", ID: id}
	}

	return nil
}
