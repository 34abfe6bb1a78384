// Package repository определяет интерфейсы хранилища ядра.
// Реализация на PostgreSQL лежит в подпакете postgres, тесты сервисов
// используют свои in-memory реализации.
package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

// LabRepository — каталог лабораторий, для ядра он только читается.
// Lock — точка сериализации конкурентных мутаций по одной лаборатории.
type LabRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Laboratory, error)
	ListActive(ctx context.Context) ([]*model.Laboratory, error)

	// Lock захватывает строку лаборатории до конца текущей транзакции
	// (SELECT ... FOR UPDATE). Обязателен перед проверкой конфликтов:
	// из двух конкурентных одобрений второе увидит зафиксированное
	// состояние первого.
	Lock(ctx context.Context, id int64) error
}

// BookingRepository — хранилище заявок
type BookingRepository interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	Update(ctx context.Context, b *model.Booking) error
	SetStatus(ctx context.Context, id int64, status model.BookingStatus,
		reviewerID int64, reviewedAt time.Time, rejectReason *string) error
	Delete(ctx context.Context, id int64) error

	// ApprovedOnDate возвращает одобренные заявки лаборатории на день —
	// вход детектора конфликтов
	ApprovedOnDate(ctx context.Context, labID int64, date time.Time) ([]*model.Booking, error)
	ListPending(ctx context.Context) ([]*model.Booking, error)
	CountPending(ctx context.Context) (int64, error)
}

// DraftRepository — хранилище черновиков
type DraftRepository interface {
	Create(ctx context.Context, d *model.Draft) error
	GetByID(ctx context.Context, id int64) (*model.Draft, error)
	Update(ctx context.Context, d *model.Draft) error
	Delete(ctx context.Context, id int64) error
	ListByRequester(ctx context.Context, requesterID int64) ([]*model.Draft, error)

	// DeleteDatedBefore удаляет черновики с датой раньше указанной
	// (уборка устаревших черновиков)
	DeleteDatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CommentRepository — хранилище комментариев к заявкам
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]*model.Comment, error)
	MarkRead(ctx context.Context, id int64) error
}

// Store объединяет репозитории и владеет границей транзакции
type Store interface {
	Labs() LabRepository
	Bookings() BookingRepository
	Drafts() DraftRepository
	Comments() CommentRepository

	// WithinTx выполняет fn в одной транзакции: все обращения через
	// переданный Store идут по одному соединению и фиксируются атомарно.
	// Ошибка fn откатывает транзакцию. Вложенный вызов продолжает
	// текущую транзакцию.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
