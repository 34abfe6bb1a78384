package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/clock"
	"github.com/Freeeeeet/lab_booking/internal/conflict"
	"github.com/Freeeeeet/lab_booking/internal/eligibility"
	"github.com/Freeeeeet/lab_booking/internal/event"
	"github.com/Freeeeeet/lab_booking/internal/model"
	"github.com/Freeeeeet/lab_booking/internal/repository"
)

// DraftService — координатор двухфазной подачи: черновик готовится в любой
// день текущего месяца, а в узкое окно подтверждения превращается в
// настоящую заявку. Черновик — не бронь, конфликты при сохранении не
// проверяются.
type DraftService struct {
	store  repository.Store
	clk    clock.Clock
	bus    *event.Bus
	logger *zap.Logger
}

func NewDraftService(store repository.Store, clk clock.Clock, bus *event.Bus, logger *zap.Logger) *DraftService {
	return &DraftService{
		store:  store,
		clk:    clk,
		bus:    bus,
		logger: logger,
	}
}

// DraftFields — необязательные поля черновика, nil-поля не задаются
type DraftFields struct {
	Date         *time.Time
	StartMinutes *int
	EndMinutes   *int
	Subject      *string
	Description  *string
	StudentCount *int
	Materials    *string
}

// Save создаёт черновик. Обязательны только заявитель и лаборатория;
// дата, если указана, должна попадать в текущий месяц.
func (s *DraftService) Save(ctx context.Context, requesterID, labID int64, fields DraftFields) (*model.Draft, error) {
	if fields.Date != nil {
		if err := eligibility.CheckDraft(s.clk.Today(), *fields.Date, nil); err != nil {
			return nil, err
		}
	}

	lab, err := s.store.Labs().GetByID(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("get laboratory: %w", err)
	}
	if lab == nil {
		return nil, &model.NotFoundError{Entity: "laboratory", ID: labID}
	}

	draft := &model.Draft{
		RequesterID:  requesterID,
		LabID:        labID,
		Date:         fields.Date,
		StartMinutes: fields.StartMinutes,
		EndMinutes:   fields.EndMinutes,
		Subject:      fields.Subject,
		Description:  fields.Description,
		StudentCount: fields.StudentCount,
		Materials:    fields.Materials,
	}

	if err := s.store.Drafts().Create(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("Draft saved",
		zap.Int64("draft_id", draft.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("lab_id", labID),
	)

	return draft, nil
}

// Edit изменяет черновик владельца. Ранее сохранённая дата принимается
// всегда, даже если сегодня она уже не прошла бы проверку.
func (s *DraftService) Edit(ctx context.Context, draftID, requesterID int64, fields DraftFields) (*model.Draft, error) {
	draft, err := s.store.Drafts().GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, &model.NotFoundError{Entity: "draft", ID: draftID}
	}
	if draft.RequesterID != requesterID {
		return nil, &model.StateError{Message: "draft belongs to another requester"}
	}

	if fields.Date != nil {
		if err := eligibility.CheckDraft(s.clk.Today(), *fields.Date, draft.Date); err != nil {
			return nil, err
		}
		draft.Date = fields.Date
	}
	if fields.StartMinutes != nil {
		draft.StartMinutes = fields.StartMinutes
	}
	if fields.EndMinutes != nil {
		draft.EndMinutes = fields.EndMinutes
	}
	if fields.Subject != nil {
		draft.Subject = fields.Subject
	}
	if fields.Description != nil {
		draft.Description = fields.Description
	}
	if fields.StudentCount != nil {
		draft.StudentCount = fields.StudentCount
	}
	if fields.Materials != nil {
		draft.Materials = fields.Materials
	}

	if err := s.store.Drafts().Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("Draft edited",
		zap.Int64("draft_id", draftID),
		zap.Int64("requester_id", requesterID),
	)

	return draft, nil
}

// Delete удаляет черновик владельца без дополнительных условий
func (s *DraftService) Delete(ctx context.Context, draftID, requesterID int64) error {
	draft, err := s.store.Drafts().GetByID(ctx, draftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return &model.NotFoundError{Entity: "draft", ID: draftID}
	}
	if draft.RequesterID != requesterID {
		return &model.StateError{Message: "draft belongs to another requester"}
	}

	if err := s.store.Drafts().Delete(ctx, draftID); err != nil {
		return err
	}

	s.logger.Info("Draft deleted",
		zap.Int64("draft_id", draftID),
		zap.Int64("requester_id", requesterID),
	)

	return nil
}

// List возвращает черновики заявителя
func (s *DraftService) List(ctx context.Context, requesterID int64) ([]*model.Draft, error) {
	return s.store.Drafts().ListByRequester(ctx, requesterID)
}

// Confirm превращает черновик в ожидающую заявку. Создание заявки и
// удаление черновика — одна транзакция: черновик не переживает успешное
// подтверждение, заявка не появляется без удаления черновика. При
// конфликте черновик остаётся нетронутым.
func (s *DraftService) Confirm(ctx context.Context, draftID, requesterID int64) (*model.Booking, error) {
	var booking *model.Booking

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		draft, err := tx.Drafts().GetByID(ctx, draftID)
		if err != nil {
			return err
		}
		if draft == nil {
			return &model.NotFoundError{Entity: "draft", ID: draftID}
		}
		if draft.RequesterID != requesterID {
			return &model.StateError{Message: "draft belongs to another requester"}
		}
		if err := draft.Complete(); err != nil {
			return err
		}
		if err := eligibility.CheckConfirm(s.clk.Today(), *draft.Date); err != nil {
			return err
		}

		lab, err := tx.Labs().GetByID(ctx, draft.LabID)
		if err != nil {
			return fmt.Errorf("get laboratory: %w", err)
		}
		if lab == nil {
			return &model.NotFoundError{Entity: "laboratory", ID: draft.LabID}
		}
		if !lab.Bookable() {
			return &model.ValidationError{
				Rule:    model.RuleLabUnavailable,
				Message: "laboratory is inactive or storage-only",
			}
		}

		b := &model.Booking{
			RequesterID:  draft.RequesterID,
			LabID:        draft.LabID,
			Date:         *draft.Date,
			StartMinutes: *draft.StartMinutes,
			EndMinutes:   *draft.EndMinutes,
			Subject:      *draft.Subject,
			Status:       model.BookingStatusPending,
			SubmittedAt:  s.clk.Now(),
		}
		if draft.Description != nil {
			b.Description = *draft.Description
		}
		if draft.StudentCount != nil {
			b.StudentCount = *draft.StudentCount
		}
		if draft.Materials != nil {
			b.Materials = *draft.Materials
		}
		if err := b.ValidateWindow(lab); err != nil {
			return err
		}

		if err := tx.Labs().Lock(ctx, b.LabID); err != nil {
			return err
		}
		approved, err := tx.Bookings().ApprovedOnDate(ctx, b.LabID, b.Date)
		if err != nil {
			return fmt.Errorf("get approved bookings: %w", err)
		}
		candidate := conflict.Window{StartMinutes: b.StartMinutes, EndMinutes: b.EndMinutes}
		if blocking := conflict.Detect(candidate, approved); blocking != nil {
			return conflict.AsError(blocking)
		}

		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		if err := tx.Drafts().Delete(ctx, draftID); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, event.NewEnvelope(s.clk.Now(), event.BookingCreated{
		BookingID:    booking.ID,
		RequesterID:  booking.RequesterID,
		LabID:        booking.LabID,
		Date:         booking.Date,
		StartMinutes: booking.StartMinutes,
		EndMinutes:   booking.EndMinutes,
	}))

	s.logger.Info("Draft confirmed",
		zap.Int64("draft_id", draftID),
		zap.Int64("booking_id", booking.ID),
		zap.Int64("requester_id", requesterID),
	)

	return booking, nil
}

// PurgeStale удаляет черновики с датой раньше текущего месяца — их окно
// подтверждения уже прошло. Вызывается фоновым планировщиком.
func (s *DraftService) PurgeStale(ctx context.Context) (int64, error) {
	today := s.clk.Today()
	cutoff := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	deleted, err := s.store.Drafts().DeleteDatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("Stale drafts purged", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
