package model

import "time"

// Draft представляет черновик заявки. Обязательны только заявитель и
// лаборатория, остальные поля заполняются постепенно — поэтому указатели.
type Draft struct {
	ID           int64      `json:"id"`
	RequesterID  int64      `json:"requester_id"`
	LabID        int64      `json:"lab_id"`
	Date         *time.Time `json:"date"`
	StartMinutes *int       `json:"start_minutes"`
	EndMinutes   *int       `json:"end_minutes"`
	Subject      *string    `json:"subject"`
	Description  *string    `json:"description"`
	StudentCount *int       `json:"student_count"`
	Materials    *string    `json:"materials"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Complete проверяет достаточно ли полей для подтверждения черновика
func (d *Draft) Complete() error {
	if d.Date == nil || d.StartMinutes == nil || d.EndMinutes == nil {
		return &ValidationError{Rule: RuleDraftIncomplete, Message: "draft has no time window"}
	}
	if d.Subject == nil || *d.Subject == "" {
		return &ValidationError{Rule: RuleDraftIncomplete, Message: "draft has no subject"}
	}
	return nil
}
