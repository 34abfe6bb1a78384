package model

import "time"

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"  // Ожидает решения лаборанта
	BookingStatusApproved BookingStatus = "approved" // Одобрено
	BookingStatusRejected BookingStatus = "rejected" // Отклонено
)

// Terminal проверяет является ли статус конечным (повторные переходы запрещены)
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusApproved || s == BookingStatusRejected
}

// Booking представляет заявку на бронирование лаборатории.
// Date — календарный день в часовом поясе учреждения,
// StartMinutes/EndMinutes — минуты от полуночи (окно внутри одного дня).
type Booking struct {
	ID           int64         `json:"id"`
	RequesterID  int64         `json:"requester_id"` // преподаватель-заявитель
	LabID        int64         `json:"lab_id"`
	Date         time.Time     `json:"date"`
	StartMinutes int           `json:"start_minutes"`
	EndMinutes   int           `json:"end_minutes"`
	Subject      string        `json:"subject"`
	Description  string        `json:"description"`
	StudentCount int           `json:"student_count"`
	Materials    string        `json:"materials"` // свободный текст, ядро его не разбирает
	Status       BookingStatus `json:"status"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	ReviewedAt   *time.Time    `json:"reviewed_at"`
	ReviewerID   *int64        `json:"reviewer_id"`
	RejectReason *string       `json:"reject_reason"` // заполняется только при отклонении

	// Внеплановое бронирование, созданное лаборантом в обход окна подачи
	IsException     bool    `json:"is_exception"`
	ExceptionReason *string `json:"exception_reason"`
	CreatedByTechID *int64  `json:"created_by_tech_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateWindow проверяет инварианты временного окна и вместимости
func (b *Booking) ValidateWindow(lab *Laboratory) error {
	if b.StartMinutes < 0 || b.EndMinutes > 24*60 {
		return &ValidationError{Rule: RuleWindow, Message: "time window is outside of the day"}
	}
	if b.EndMinutes <= b.StartMinutes {
		return &ValidationError{Rule: RuleWindow, Message: "end time must be after start time"}
	}
	if lab != nil && lab.Capacity > 0 && b.StudentCount > lab.Capacity {
		return &ValidationError{Rule: RuleCapacity, Message: "student count exceeds laboratory capacity"}
	}
	return nil
}

// ValidateException проверяет инварианты полей внепланового бронирования
func (b *Booking) ValidateException() error {
	if b.IsException {
		if b.ExceptionReason == nil || *b.ExceptionReason == "" {
			return &ValidationError{Rule: RuleException, Message: "exception reason is required"}
		}
		if b.CreatedByTechID == nil {
			return &ValidationError{Rule: RuleException, Message: "exception booking requires a technician"}
		}
		return nil
	}
	if b.ExceptionReason != nil || b.CreatedByTechID != nil {
		return &ValidationError{Rule: RuleException, Message: "exception fields are set on a regular booking"}
	}
	return nil
}
