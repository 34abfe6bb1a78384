package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/event"
)

// Invalidator подписывается на доменные события и сбрасывает ключи,
// значение которых зависит от состояния бронирований. Контракт
// корректности: инвалидация выполняется синхронно до того, как мутация
// вернёт успех. Сбой кэша при этом запись не откатывает — он логируется,
// а страховкой служит TTL.
type Invalidator struct {
	cache  Cache
	logger *zap.Logger
}

func NewInvalidator(cache Cache, logger *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

// HandleEvent реализует event.Handler
func (inv *Invalidator) HandleEvent(ctx context.Context, env event.Envelope) error {
	var err error

	switch e := env.Event.(type) {
	case event.BookingCreated:
		err = inv.drop(ctx, e.BookingID, e.LabID, e.Date)
	case event.BookingApproved:
		err = inv.drop(ctx, e.BookingID, e.LabID, e.Date)
	case event.BookingRejected:
		err = inv.drop(ctx, e.BookingID, e.LabID, e.Date)
	case event.BookingCancelled:
		err = inv.drop(ctx, e.BookingID, e.LabID, e.Date)
	case event.BookingEdited:
		// дата могла измениться, старая неизвестна — сбрасываем весь
		// календарь лаборатории
		err = inv.cache.Delete(ctx,
			KeyBooking(e.BookingID), KeyPendingCount, KeyPendingList, KeyDashboardStats)
		if err == nil {
			err = inv.cache.DeletePattern(ctx, KeyCalendarPattern(e.LabID))
		}
	case event.CommentAdded:
		err = inv.cache.Delete(ctx, KeyBooking(e.BookingID), KeyDashboardStats)
	default:
		return nil
	}

	if err != nil {
		// не пробрасываем: успех записи важнее свежести кэша
		inv.logger.Warn("cache invalidation failed",
			zap.String("event", env.Event.Kind()),
			zap.Error(err),
		)
	}
	return nil
}

func (inv *Invalidator) drop(ctx context.Context, bookingID, labID int64, date time.Time) error {
	return inv.cache.Delete(ctx,
		KeyBooking(bookingID),
		KeyPendingCount,
		KeyPendingList,
		KeyDashboardStats,
		KeyCalendar(labID, date),
	)
}
