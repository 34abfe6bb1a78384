package event

import (
	"context"

	"go.uber.org/zap"
)

// Handler обрабатывает доменное событие
type Handler interface {
	HandleEvent(ctx context.Context, env Envelope) error
}

// Bus — синхронная внутрипроцессная шина событий. Подписчики вызываются
// в порядке регистрации до возврата управления публикующей стороне:
// инвалидация кэша обязана завершиться раньше, чем вызывающий увидит
// успех мутации.
type Bus struct {
	handlers []Handler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe регистрирует подписчика. Не потокобезопасно — все подписки
// выполняются при старте приложения.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Publish доставляет событие всем подписчикам. Ошибка подписчика
// логируется и не прерывает ни доставку остальным, ни саму запись —
// успех мутации важнее свежести кэша и доставки уведомлений.
func (b *Bus) Publish(ctx context.Context, env Envelope) {
	for _, h := range b.handlers {
		if err := h.HandleEvent(ctx, env); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("event", env.Event.Kind()),
				zap.String("event_id", env.ID.String()),
				zap.Error(err),
			)
		}
	}
}
