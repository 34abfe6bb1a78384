// Package eligibility реализует календарные правила подачи заявок:
// какие даты и действия допустимы в зависимости от «сегодня».
// Все функции чистые, время передаётся явно.
package eligibility

import (
	"time"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

// Workflow определяет набор календарных правил для проверки даты
type Workflow int

const (
	WorkflowDirect    Workflow = iota // прямая подача заявки
	WorkflowDraft                     // сохранение черновика
	WorkflowException                 // внеплановое бронирование лаборантом
)

// Дни недели в нумерации Monday=0..Sunday=6 — единая для всего ядра
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ExceptionHorizonDays — горизонт внепланового бронирования
const ExceptionHorizonDays = 90

// submissionDays — дни недели, когда открыто окно подачи и подтверждения
var submissionDays = map[int]bool{Monday: true, Tuesday: true}

// dateOnly приводит значение к «голой» календарной дате (полночь UTC).
// После локализации часами учреждения сравнение идёт только по дням,
// поэтому исходный пояс значения дальше не важен.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayIndex возвращает день недели в нумерации Monday=0
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NextMonday возвращает ближайший понедельник строго после today
func NextMonday(today time.Time) time.Time {
	today = dateOnly(today)
	return today.AddDate(0, 0, 7-WeekdayIndex(today))
}

// MondayOf возвращает понедельник ISO-недели, содержащей t
func MondayOf(t time.Time) time.Time {
	t = dateOnly(t)
	return t.AddDate(0, 0, -WeekdayIndex(t))
}

// SubmissionOpen проверяет открыто ли сегодня окно подачи заявок
func SubmissionOpen(today time.Time) bool {
	return submissionDays[WeekdayIndex(today)]
}

// Check проверяет допустимость даты target для данного workflow.
// Возвращает nil либо *model.ValidationError с конкретным правилом.
func Check(w Workflow, today, target time.Time) error {
	switch w {
	case WorkflowDirect:
		return checkDirect(today, target)
	case WorkflowDraft:
		return CheckDraft(today, target, nil)
	case WorkflowException:
		return checkException(today, target)
	}
	return &model.ValidationError{Rule: model.RuleSubmissionDay, Message: "unknown workflow"}
}

// Прямая подача: сегодня понедельник или вторник, дата — в пределах
// следующей недели (понедельник..суббота), воскресенье исключено.
func checkDirect(today, target time.Time) error {
	today, target = dateOnly(today), dateOnly(target)

	if !SubmissionOpen(today) {
		return &model.ValidationError{
			Rule:    model.RuleSubmissionDay,
			Message: "bookings are submitted on Monday and Tuesday only",
		}
	}
	if WeekdayIndex(target) == Sunday {
		return &model.ValidationError{
			Rule:    model.RuleSunday,
			Message: "laboratories are closed on Sunday",
		}
	}
	weekStart := NextMonday(today)
	weekEnd := weekStart.AddDate(0, 0, 5) // понедельник..суббота
	if target.Before(weekStart) || target.After(weekEnd) {
		return &model.ValidationError{
			Rule:    model.RuleTargetWeek,
			Message: "date must fall within the next week",
		}
	}
	return nil
}

// CheckDraft проверяет дату черновика: любой день текущего месяца кроме
// воскресенья. При редактировании существующего черновика ранее сохранённая
// дата принимается всегда — движок не отклоняет значение, которое сам
// когда-то пропустил или которое осталось от старых правил.
func CheckDraft(today, target time.Time, existing *time.Time) error {
	today, target = dateOnly(today), dateOnly(target)

	if existing != nil && dateOnly(*existing).Equal(target) {
		return nil
	}
	if WeekdayIndex(target) == Sunday {
		return &model.ValidationError{
			Rule:    model.RuleSunday,
			Message: "laboratories are closed on Sunday",
		}
	}
	ty, tm, _ := today.Date()
	gy, gm, _ := target.Date()
	if ty != gy || tm != gm {
		return &model.ValidationError{
			Rule:    model.RuleDraftMonth,
			Message: "draft date must fall within the current month",
		}
	}
	return nil
}

// CheckConfirm проверяет подтверждение черновика: целевая дата не
// воскресенье, сегодня — понедельник или вторник недели, предшествующей
// неделе целевой даты. Воскресенье проверяется и здесь: правило
// расширения могло сохранить в черновике дату, которую подача уже
// не пропустила бы.
func CheckConfirm(today, target time.Time) error {
	today, target = dateOnly(today), dateOnly(target)

	if WeekdayIndex(target) == Sunday {
		return &model.ValidationError{
			Rule:    model.RuleSunday,
			Message: "laboratories are closed on Sunday",
		}
	}
	m := MondayOf(target)
	if today.Equal(m.AddDate(0, 0, -7)) || today.Equal(m.AddDate(0, 0, -6)) {
		return nil
	}
	return &model.ValidationError{
		Rule:    model.RuleConfirmDay,
		Message: "drafts are confirmed on Monday or Tuesday of the preceding week",
	}
}

// Внеплановое бронирование: от сегодня до today+90 дней, без ограничений
// по дням недели.
func checkException(today, target time.Time) error {
	today, target = dateOnly(today), dateOnly(target)

	if target.Before(today) {
		return &model.ValidationError{
			Rule:    model.RuleExceptionHorizon,
			Message: "date is in the past",
		}
	}
	if target.After(today.AddDate(0, 0, ExceptionHorizonDays)) {
		return &model.ValidationError{
			Rule:    model.RuleExceptionHorizon,
			Message: "date is beyond the 90-day horizon",
		}
	}
	return nil
}
