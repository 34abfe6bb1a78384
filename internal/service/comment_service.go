package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/clock"
	"github.com/Freeeeeet/lab_booking/internal/event"
	"github.com/Freeeeeet/lab_booking/internal/model"
	"github.com/Freeeeeet/lab_booking/internal/repository"
)

// CommentService — обсуждение заявки между автором и рецензентами
type CommentService struct {
	store  repository.Store
	clk    clock.Clock
	bus    *event.Bus
	logger *zap.Logger
}

func NewCommentService(store repository.Store, clk clock.Clock, bus *event.Bus, logger *zap.Logger) *CommentService {
	return &CommentService{
		store:  store,
		clk:    clk,
		bus:    bus,
		logger: logger,
	}
}

// Add добавляет комментарий. Писать могут автор заявки и рецензенты;
// принадлежность роли рецензента проверяет вызывающая сторона.
func (s *CommentService) Add(ctx context.Context, bookingID, authorID int64, asReviewer bool, message string) (*model.Comment, error) {
	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, &model.NotFoundError{Entity: "booking", ID: bookingID}
	}
	if !asReviewer && booking.RequesterID != authorID {
		return nil, &model.StateError{Message: "author must be the requester or a reviewer"}
	}

	comment := &model.Comment{
		BookingID: bookingID,
		AuthorID:  authorID,
		Message:   message,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, event.NewEnvelope(s.clk.Now(), event.CommentAdded{
		BookingID: bookingID,
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: comment.CreatedAt,
	}))

	s.logger.Info("Comment added",
		zap.Int64("booking_id", bookingID),
		zap.Int64("author_id", authorID),
	)

	return comment, nil
}

// List возвращает обсуждение заявки
func (s *CommentService) List(ctx context.Context, bookingID int64) ([]*model.Comment, error) {
	return s.store.Comments().ListByBooking(ctx, bookingID)
}

// MarkRead отмечает комментарий прочитанным (идемпотентно)
func (s *CommentService) MarkRead(ctx context.Context, commentID int64) error {
	return s.store.Comments().MarkRead(ctx, commentID)
}
