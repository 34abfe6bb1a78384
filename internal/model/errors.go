package model

import (
	"errors"
	"fmt"
	"time"
)

// Правила валидации — попадают в ValidationError.Rule, чтобы вызывающая
// сторона могла показать конкретное сообщение
const (
	RuleWindow           = "window"            // end <= start или окно вне суток
	RuleCapacity         = "capacity"          // превышена вместимость лаборатории
	RuleException        = "exception"         // нарушены инварианты внепланового бронирования
	RuleDraftIncomplete  = "draft_incomplete"  // черновик нельзя подтвердить
	RuleLabUnavailable   = "lab_unavailable"   // лаборатория неактивна или складская
	RuleSubmissionDay    = "submission_day"    // сегодня не день подачи заявок
	RuleTargetWeek       = "target_week"       // дата вне недельного окна подачи
	RuleSunday           = "sunday"            // воскресенье не бронируется
	RuleDraftMonth       = "draft_month"       // дата черновика вне текущего месяца
	RuleConfirmDay       = "confirm_day"       // сегодня не день подтверждения черновика
	RuleExceptionHorizon = "exception_horizon" // дата вне горизонта внепланового бронирования
)

// ValidationError — исправимая пользователем ошибка ввода или календарного правила
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// ConflictError — пересечение с уже одобренным бронированием.
// Несёт данные блокирующей заявки для сообщения пользователю.
type ConflictError struct {
	BlockingID   int64
	Date         time.Time
	StartMinutes int
	EndMinutes   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time window overlaps approved booking %d (%02d:%02d-%02d:%02d)",
		e.BlockingID,
		e.StartMinutes/60, e.StartMinutes%60,
		e.EndMinutes/60, e.EndMinutes%60,
	)
}

// StateError — ошибка использования: недопустимый переход состояния
// или действие над чужой сущностью
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// NotFoundError — сущность не найдена
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// IsValidation проверяет является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict проверяет является ли ошибка конфликтом расписания
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsState проверяет является ли ошибка ошибкой состояния
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound проверяет является ли ошибка отсутствием сущности
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
