package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

type BookingRepository struct {
	db querier
}

const bookingColumns = `
	id, requester_id, lab_id, date, start_minutes, end_minutes,
	subject, description, student_count, materials,
	status, submitted_at, reviewed_at, reviewer_id, reject_reason,
	is_exception, exception_reason, created_by_tech_id,
	created_at, updated_at
`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.RequesterID,
		&b.LabID,
		&b.Date,
		&b.StartMinutes,
		&b.EndMinutes,
		&b.Subject,
		&b.Description,
		&b.StudentCount,
		&b.Materials,
		&b.Status,
		&b.SubmittedAt,
		&b.ReviewedAt,
		&b.ReviewerID,
		&b.RejectReason,
		&b.IsException,
		&b.ExceptionReason,
		&b.CreatedByTechID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create создаёт новую заявку
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	query := `
		INSERT INTO bookings (
			requester_id, lab_id, date, start_minutes, end_minutes,
			subject, description, student_count, materials,
			status, submitted_at, reviewed_at, reviewer_id, reject_reason,
			is_exception, exception_reason, created_by_tech_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		b.RequesterID,
		b.LabID,
		b.Date,
		b.StartMinutes,
		b.EndMinutes,
		b.Subject,
		b.Description,
		b.StudentCount,
		b.Materials,
		b.Status,
		b.SubmittedAt,
		b.ReviewedAt,
		b.ReviewerID,
		b.RejectReason,
		b.IsException,
		b.ExceptionReason,
		b.CreatedByTechID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

// Update обновляет изменяемые поля заявки (окно, лаборатория, описание)
func (r *BookingRepository) Update(ctx context.Context, b *model.Booking) error {
	query := `
		UPDATE bookings
		SET lab_id = $1, date = $2, start_minutes = $3, end_minutes = $4,
		    subject = $5, description = $6, student_count = $7, materials = $8,
		    updated_at = NOW()
		WHERE id = $9
	`

	result, err := r.db.Exec(
		ctx, query,
		b.LabID,
		b.Date,
		b.StartMinutes,
		b.EndMinutes,
		b.Subject,
		b.Description,
		b.StudentCount,
		b.Materials,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "booking", ID: b.ID}
	}

	return nil
}

// SetStatus переводит заявку в конечный статус с данными рецензента
func (r *BookingRepository) SetStatus(ctx context.Context, id int64, status model.BookingStatus,
	reviewerID int64, reviewedAt time.Time, rejectReason *string) error {

	query := `
		UPDATE bookings
		SET status = $1, reviewer_id = $2, reviewed_at = $3, reject_reason = $4,
		    updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.db.Exec(ctx, query, status, reviewerID, reviewedAt, rejectReason, id)
	if err != nil {
		return fmt.Errorf("set booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "booking", ID: id}
	}

	return nil
}

// Delete удаляет заявку
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "booking", ID: id}
	}

	return nil
}

// ApprovedOnDate получает одобренные заявки лаборатории на день
func (r *BookingRepository) ApprovedOnDate(ctx context.Context, labID int64, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE lab_id = $1 AND date = $2 AND status = 'approved'
		ORDER BY start_minutes
	`

	rows, err := r.db.Query(ctx, query, labID, date)
	if err != nil {
		return nil, fmt.Errorf("get approved bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// ListPending получает все ожидающие решения заявки
func (r *BookingRepository) ListPending(ctx context.Context) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending'
		ORDER BY submitted_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// CountPending возвращает число ожидающих заявок
func (r *BookingRepository) CountPending(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE status = 'pending'`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending bookings: %w", err)
	}

	return count, nil
}
