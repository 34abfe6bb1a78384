// Package event определяет доменные события жизненного цикла бронирований
// и синхронную шину для их доставки подписчикам (инвалидация кэша,
// уведомления).
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event — доменное событие ядра
type Event interface {
	// Kind возвращает имя типа события
	Kind() string
}

// Envelope оборачивает событие служебными полями
type Envelope struct {
	ID         uuid.UUID
	OccurredAt time.Time
	Event      Event
}

// NewEnvelope создаёт конверт для события
func NewEnvelope(occurredAt time.Time, e Event) Envelope {
	return Envelope{
		ID:         uuid.New(),
		OccurredAt: occurredAt,
		Event:      e,
	}
}

type BookingCreated struct {
	BookingID    int64
	RequesterID  int64
	LabID        int64
	Date         time.Time
	StartMinutes int
	EndMinutes   int
	IsException  bool
}

func (BookingCreated) Kind() string { return "booking.created" }

type BookingApproved struct {
	BookingID  int64
	LabID      int64
	Date       time.Time
	ReviewerID int64
	ReviewedAt time.Time
}

func (BookingApproved) Kind() string { return "booking.approved" }

type BookingRejected struct {
	BookingID  int64
	LabID      int64
	Date       time.Time
	ReviewerID int64
	ReviewedAt time.Time
	Reason     string
}

func (BookingRejected) Kind() string { return "booking.rejected" }

type BookingCancelled struct {
	BookingID   int64
	RequesterID int64
	LabID       int64
	Date        time.Time
}

func (BookingCancelled) Kind() string { return "booking.cancelled" }

type BookingEdited struct {
	BookingID     int64
	LabID         int64
	Date          time.Time
	ChangedFields []string
	EditedBy      int64
}

func (BookingEdited) Kind() string { return "booking.edited" }

type CommentAdded struct {
	BookingID int64
	AuthorID  int64
	Message   string
	CreatedAt time.Time
}

func (CommentAdded) Kind() string { return "comment.added" }
