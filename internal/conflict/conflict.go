// Package conflict реализует проверку пересечения временных окон
// бронирований одной лаборатории в один день.
package conflict

import (
	"github.com/Freeeeeet/lab_booking/internal/model"
)

// Window — кандидатное временное окно в минутах от полуночи
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов [s1,e1) и [s2,e2)
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// Detect ищет первое одобренное бронирование, пересекающееся с кандидатом.
// Отклонённые и ожидающие заявки не блокируют — вызывающая сторона обязана
// передавать только одобренные. Возвращает nil если конфликта нет.
//
// Проверка должна выполняться заново при каждом переходе в approved внутри
// той же транзакции — результат более ранней проверки мог устареть из-за
// параллельного одобрения.
func Detect(candidate Window, approved []*model.Booking) *model.Booking {
	for _, b := range approved {
		if Overlaps(candidate.StartMinutes, candidate.EndMinutes, b.StartMinutes, b.EndMinutes) {
			return b
		}
	}
	return nil
}

// AsError преобразует блокирующее бронирование в ConflictError
func AsError(blocking *model.Booking) *model.ConflictError {
	return &model.ConflictError{
		BlockingID:   blocking.ID,
		Date:         blocking.Date,
		StartMinutes: blocking.StartMinutes,
		EndMinutes:   blocking.EndMinutes,
	}
}
