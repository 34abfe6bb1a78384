package cache

import (
	"fmt"
	"time"
)

// Перечень агрегатных ключей, зависящих от состояния бронирований.
// Потомковое отслеживание зависимостей не оправдано — набор мал и известен.
const (
	KeyPendingCount   = "bookings:pending:count"
	KeyPendingList    = "bookings:pending:list"
	KeyDashboardStats = "dashboard:stats"
)

// KeyBooking — ключ карточки бронирования
func KeyBooking(id int64) string {
	return fmt.Sprintf("booking:%d", id)
}

// KeyCalendar — ключ календаря лаборатории на день
func KeyCalendar(labID int64, date time.Time) string {
	return fmt.Sprintf("calendar:%d:%s", labID, date.Format("2006-01-02"))
}

// KeyCalendarPattern — шаблон всех календарных ключей лаборатории
func KeyCalendarPattern(labID int64) string {
	return fmt.Sprintf("calendar:%d:*", labID)
}
