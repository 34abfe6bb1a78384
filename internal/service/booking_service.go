package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/cache"
	"github.com/Freeeeeet/lab_booking/internal/clock"
	"github.com/Freeeeeet/lab_booking/internal/conflict"
	"github.com/Freeeeeet/lab_booking/internal/eligibility"
	"github.com/Freeeeeet/lab_booking/internal/event"
	"github.com/Freeeeeet/lab_booking/internal/model"
	"github.com/Freeeeeet/lab_booking/internal/repository"
)

// BookingService владеет машиной состояний заявки: pending → approved/rejected
// плюс внеплановый путь сразу в approved. Каждая зафиксированная мутация
// синхронно публикует доменное событие — на него подписаны инвалидация кэша
// и уведомления.
type BookingService struct {
	store    repository.Store
	cache    cache.Cache
	clk      clock.Clock
	bus      *event.Bus
	logger   *zap.Logger
	cacheTTL time.Duration
}

func NewBookingService(
	store repository.Store,
	c cache.Cache,
	clk clock.Clock,
	bus *event.Bus,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *BookingService {
	return &BookingService{
		store:    store,
		cache:    c,
		clk:      clk,
		bus:      bus,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// CreateBookingRequest — данные прямой подачи заявки
type CreateBookingRequest struct {
	RequesterID  int64
	LabID        int64
	Date         time.Time
	StartMinutes int
	EndMinutes   int
	Subject      string
	Description  string
	StudentCount int
	Materials    string
}

// CreateExceptionRequest — данные внепланового бронирования лаборантом
type CreateExceptionRequest struct {
	CreateBookingRequest
	TechnicianID int64
	Reason       string
}

// EditBookingRequest — частичное изменение заявки, nil-поля не трогаются
type EditBookingRequest struct {
	LabID        *int64
	Date         *time.Time
	StartMinutes *int
	EndMinutes   *int
	Subject      *string
	Description  *string
	StudentCount *int
	Materials    *string
}

// Create создаёт заявку по прямому пути: сегодня должен быть день подачи,
// дата — в пределах следующей недели, окно не должно пересекаться с уже
// одобренными заявками.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if err := eligibility.Check(eligibility.WorkflowDirect, s.clk.Today(), req.Date); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		RequesterID:  req.RequesterID,
		LabID:        req.LabID,
		Date:         req.Date,
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
		Subject:      req.Subject,
		Description:  req.Description,
		StudentCount: req.StudentCount,
		Materials:    req.Materials,
		Status:       model.BookingStatusPending,
		SubmittedAt:  s.clk.Now(),
	}

	if err := s.commitCreate(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, event.BookingCreated{
		BookingID:    booking.ID,
		RequesterID:  booking.RequesterID,
		LabID:        booking.LabID,
		Date:         booking.Date,
		StartMinutes: booking.StartMinutes,
		EndMinutes:   booking.EndMinutes,
	})

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("requester_id", booking.RequesterID),
		zap.Int64("lab_id", booking.LabID),
		zap.String("date", booking.Date.Format("2006-01-02")),
	)

	return booking, nil
}

// CreateException создаёт внеплановую заявку: календарное окно подачи
// обходится, но проверка конфликтов выполняется всегда. Заявка создаётся
// сразу одобренной, рецензент — создавший лаборант.
func (s *BookingService) CreateException(ctx context.Context, req CreateExceptionRequest) (*model.Booking, error) {
	if err := eligibility.Check(eligibility.WorkflowException, s.clk.Today(), req.Date); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	reason := req.Reason
	booking := &model.Booking{
		RequesterID:     req.RequesterID,
		LabID:           req.LabID,
		Date:            req.Date,
		StartMinutes:    req.StartMinutes,
		EndMinutes:      req.EndMinutes,
		Subject:         req.Subject,
		Description:     req.Description,
		StudentCount:    req.StudentCount,
		Materials:       req.Materials,
		Status:          model.BookingStatusApproved,
		SubmittedAt:     now,
		ReviewedAt:      &now,
		ReviewerID:      &req.TechnicianID,
		IsException:     true,
		ExceptionReason: &reason,
		CreatedByTechID: &req.TechnicianID,
	}

	if err := booking.ValidateException(); err != nil {
		return nil, err
	}

	if err := s.commitCreate(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, event.BookingCreated{
		BookingID:    booking.ID,
		RequesterID:  booking.RequesterID,
		LabID:        booking.LabID,
		Date:         booking.Date,
		StartMinutes: booking.StartMinutes,
		EndMinutes:   booking.EndMinutes,
		IsException:  true,
	})
	s.publish(ctx, event.BookingApproved{
		BookingID:  booking.ID,
		LabID:      booking.LabID,
		Date:       booking.Date,
		ReviewerID: req.TechnicianID,
		ReviewedAt: now,
	})

	s.logger.Info("Exception booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("technician_id", req.TechnicianID),
		zap.Int64("lab_id", booking.LabID),
		zap.String("date", booking.Date.Format("2006-01-02")),
	)

	return booking, nil
}

// commitCreate — общая транзакционная часть создания: проверка лаборатории,
// блокировка, проверка конфликтов и вставка.
func (s *BookingService) commitCreate(ctx context.Context, booking *model.Booking) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		lab, err := tx.Labs().GetByID(ctx, booking.LabID)
		if err != nil {
			return fmt.Errorf("get laboratory: %w", err)
		}
		if lab == nil {
			return &model.NotFoundError{Entity: "laboratory", ID: booking.LabID}
		}
		if !lab.Bookable() {
			return &model.ValidationError{
				Rule:    model.RuleLabUnavailable,
				Message: "laboratory is inactive or storage-only",
			}
		}
		if err := booking.ValidateWindow(lab); err != nil {
			return err
		}

		// сериализуем конкурентные мутации по лаборатории
		if err := tx.Labs().Lock(ctx, booking.LabID); err != nil {
			return err
		}

		approved, err := tx.Bookings().ApprovedOnDate(ctx, booking.LabID, booking.Date)
		if err != nil {
			return fmt.Errorf("get approved bookings: %w", err)
		}
		candidate := conflict.Window{StartMinutes: booking.StartMinutes, EndMinutes: booking.EndMinutes}
		if blocking := conflict.Detect(candidate, approved); blocking != nil {
			return conflict.AsError(blocking)
		}

		return tx.Bookings().Create(ctx, booking)
	})
}

// Approve одобряет ожидающую заявку. Проверка конфликтов выполняется
// заново внутри транзакции под блокировкой лаборатории — из двух
// конкурентных одобрений пересекающихся заявок фиксируется ровно одно.
func (s *BookingService) Approve(ctx context.Context, bookingID, reviewerID int64) (*model.Booking, error) {
	var booking *model.Booking
	now := s.clk.Now()

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return &model.NotFoundError{Entity: "booking", ID: bookingID}
		}

		if err := tx.Labs().Lock(ctx, b.LabID); err != nil {
			return err
		}

		// перечитываем после блокировки: конкурент мог успеть раньше
		b, err = tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("reread booking: %w", err)
		}
		if b == nil {
			return &model.NotFoundError{Entity: "booking", ID: bookingID}
		}
		if b.Status != model.BookingStatusPending {
			return &model.StateError{Message: "booking is not pending"}
		}

		approved, err := tx.Bookings().ApprovedOnDate(ctx, b.LabID, b.Date)
		if err != nil {
			return fmt.Errorf("get approved bookings: %w", err)
		}
		candidate := conflict.Window{StartMinutes: b.StartMinutes, EndMinutes: b.EndMinutes}
		if blocking := conflict.Detect(candidate, approved); blocking != nil {
			return conflict.AsError(blocking)
		}

		if err := tx.Bookings().SetStatus(ctx, bookingID, model.BookingStatusApproved, reviewerID, now, nil); err != nil {
			return err
		}

		b.Status = model.BookingStatusApproved
		b.ReviewerID = &reviewerID
		b.ReviewedAt = &now
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.BookingApproved{
		BookingID:  booking.ID,
		LabID:      booking.LabID,
		Date:       booking.Date,
		ReviewerID: reviewerID,
		ReviewedAt: now,
	})

	s.logger.Info("Booking approved",
		zap.Int64("booking_id", bookingID),
		zap.Int64("reviewer_id", reviewerID),
	)

	return booking, nil
}

// Reject отклоняет ожидающую заявку. Причина сохраняется всегда,
// в том числе пустая.
func (s *BookingService) Reject(ctx context.Context, bookingID, reviewerID int64, reason string) (*model.Booking, error) {
	var booking *model.Booking
	now := s.clk.Now()

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return &model.NotFoundError{Entity: "booking", ID: bookingID}
		}
		if b.Status != model.BookingStatusPending {
			return &model.StateError{Message: "booking is not pending"}
		}

		if err := tx.Bookings().SetStatus(ctx, bookingID, model.BookingStatusRejected, reviewerID, now, &reason); err != nil {
			return err
		}

		b.Status = model.BookingStatusRejected
		b.ReviewerID = &reviewerID
		b.ReviewedAt = &now
		b.RejectReason = &reason
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.BookingRejected{
		BookingID:  booking.ID,
		LabID:      booking.LabID,
		Date:       booking.Date,
		ReviewerID: reviewerID,
		ReviewedAt: now,
		Reason:     reason,
	})

	s.logger.Info("Booking rejected",
		zap.Int64("booking_id", bookingID),
		zap.Int64("reviewer_id", reviewerID),
	)

	return booking, nil
}

// Cancel удаляет ожидающую заявку по инициативе её автора
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID int64) error {
	var booking *model.Booking

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return &model.NotFoundError{Entity: "booking", ID: bookingID}
		}
		if b.RequesterID != requesterID {
			return &model.StateError{Message: "booking belongs to another requester"}
		}
		if b.Status != model.BookingStatusPending {
			return &model.StateError{Message: "only pending bookings can be cancelled"}
		}

		booking = b
		return tx.Bookings().Delete(ctx, bookingID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.BookingCancelled{
		BookingID:   booking.ID,
		RequesterID: requesterID,
		LabID:       booking.LabID,
		Date:        booking.Date,
	})

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("requester_id", requesterID),
	)

	return nil
}

// поля, изменение которых рецензентом фиксируется системным комментарием
var reviewedFields = map[string]bool{
	"lab": true, "date": true, "start": true, "end": true, "students": true,
}

// Edit изменяет ожидающую заявку. Автор правит только в дни открытого окна
// подачи; рецензент — в любой день, при этом изменение ключевых полей
// фиксируется системным комментарием, чтобы автор узнал о правке.
func (s *BookingService) Edit(ctx context.Context, bookingID, editorID int64, asReviewer bool, req EditBookingRequest) (*model.Booking, error) {
	var (
		booking *model.Booking
		changed []string
		summary string
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return &model.NotFoundError{Entity: "booking", ID: bookingID}
		}
		if b.Status != model.BookingStatusPending {
			return &model.StateError{Message: "only pending bookings can be edited"}
		}
		if !asReviewer {
			if b.RequesterID != editorID {
				return &model.StateError{Message: "booking belongs to another requester"}
			}
			if !eligibility.SubmissionOpen(s.clk.Today()) {
				return &model.ValidationError{
					Rule:    model.RuleSubmissionDay,
					Message: "bookings are edited on Monday and Tuesday only",
				}
			}
		}

		changed, summary = applyEdit(b, req)
		if len(changed) == 0 {
			booking = b
			return nil
		}

		lab, err := tx.Labs().GetByID(ctx, b.LabID)
		if err != nil {
			return fmt.Errorf("get laboratory: %w", err)
		}
		if lab == nil {
			return &model.NotFoundError{Entity: "laboratory", ID: b.LabID}
		}
		if !lab.Bookable() {
			return &model.ValidationError{
				Rule:    model.RuleLabUnavailable,
				Message: "laboratory is inactive or storage-only",
			}
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

		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}

		// рецензент поправил ключевые поля — уведомляем автора
		// системным комментарием в обсуждении заявки
		if asReviewer && summary != "" {
			comment := &model.Comment{
				BookingID: b.ID,
				AuthorID:  model.SystemAuthorID,
				Message:   summary,
			}
			if err := tx.Comments().Create(ctx, comment); err != nil {
				return fmt.Errorf("create system comment: %w", err)
			}
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) == 0 {
		return booking, nil
	}

	s.publish(ctx, event.BookingEdited{
		BookingID:     booking.ID,
		LabID:         booking.LabID,
		Date:          booking.Date,
		ChangedFields: changed,
		EditedBy:      editorID,
	})
	if asReviewer && summary != "" {
		s.publish(ctx, event.CommentAdded{
			BookingID: booking.ID,
			AuthorID:  model.SystemAuthorID,
			Message:   summary,
			CreatedAt: s.clk.Now(),
		})
	}

	s.logger.Info("Booking edited",
		zap.Int64("booking_id", bookingID),
		zap.Int64("editor_id", editorID),
		zap.Bool("as_reviewer", asReviewer),
		zap.Strings("changed", changed),
	)

	return booking, nil
}

// applyEdit применяет изменения к заявке и возвращает список изменённых
// полей и сводку по ключевым полям для системного комментария
func applyEdit(b *model.Booking, req EditBookingRequest) ([]string, string) {
	var changed []string
	var parts []string

	if req.LabID != nil && *req.LabID != b.LabID {
		parts = append(parts, fmt.Sprintf("лаборатория: %d → %d", b.LabID, *req.LabID))
		b.LabID = *req.LabID
		changed = append(changed, "lab")
	}
	if req.Date != nil && !req.Date.Equal(b.Date) {
		parts = append(parts, fmt.Sprintf("дата: %s → %s",
			b.Date.Format("2006-01-02"), req.Date.Format("2006-01-02")))
		b.Date = *req.Date
		changed = append(changed, "date")
	}
	if req.StartMinutes != nil && *req.StartMinutes != b.StartMinutes {
		parts = append(parts, fmt.Sprintf("начало: %s → %s",
			formatMinutes(b.StartMinutes), formatMinutes(*req.StartMinutes)))
		b.StartMinutes = *req.StartMinutes
		changed = append(changed, "start")
	}
	if req.EndMinutes != nil && *req.EndMinutes != b.EndMinutes {
		parts = append(parts, fmt.Sprintf("окончание: %s → %s",
			formatMinutes(b.EndMinutes), formatMinutes(*req.EndMinutes)))
		b.EndMinutes = *req.EndMinutes
		changed = append(changed, "end")
	}
	if req.StudentCount != nil && *req.StudentCount != b.StudentCount {
		parts = append(parts, fmt.Sprintf("студентов: %d → %d", b.StudentCount, *req.StudentCount))
		b.StudentCount = *req.StudentCount
		changed = append(changed, "students")
	}
	if req.Subject != nil && *req.Subject != b.Subject {
		b.Subject = *req.Subject
		changed = append(changed, "subject")
	}
	if req.Description != nil && *req.Description != b.Description {
		b.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.Materials != nil && *req.Materials != b.Materials {
		b.Materials = *req.Materials
		changed = append(changed, "materials")
	}

	summary := ""
	if len(parts) > 0 {
		summary = "Заявка изменена лаборантом: " + strings.Join(parts, "; ")
	}
	return changed, summary
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// GetByID получает заявку, используя кэш карточек
func (s *BookingService) GetByID(ctx context.Context, bookingID int64) (*model.Booking, error) {
	key := cache.KeyBooking(bookingID)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var b model.Booking
		if err := json.Unmarshal(data, &b); err == nil {
			return &b, nil
		}
	}

	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &model.NotFoundError{Entity: "booking", ID: bookingID}
	}

	s.cacheSet(ctx, key, b)
	return b, nil
}

// PendingCount возвращает число ожидающих заявок (кэшируемый агрегат)
func (s *BookingService) PendingCount(ctx context.Context) (int64, error) {
	if data, err := s.cache.Get(ctx, cache.KeyPendingCount); err == nil {
		if count, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			return count, nil
		}
	}

	count, err := s.store.Bookings().CountPending(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, cache.KeyPendingCount, []byte(strconv.FormatInt(count, 10)), s.cacheTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", cache.KeyPendingCount), zap.Error(err))
	}
	return count, nil
}

// ListPending возвращает ожидающие заявки (кэшируемый агрегат)
func (s *BookingService) ListPending(ctx context.Context) ([]*model.Booking, error) {
	if data, err := s.cache.Get(ctx, cache.KeyPendingList); err == nil {
		var bookings []*model.Booking
		if err := json.Unmarshal(data, &bookings); err == nil {
			return bookings, nil
		}
	}

	bookings, err := s.store.Bookings().ListPending(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cache.KeyPendingList, bookings)
	return bookings, nil
}

// DayCalendar возвращает одобренные заявки лаборатории на день
// (кэшируемый календарь)
func (s *BookingService) DayCalendar(ctx context.Context, labID int64, date time.Time) ([]*model.Booking, error) {
	key := cache.KeyCalendar(labID, date)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var bookings []*model.Booking
		if err := json.Unmarshal(data, &bookings); err == nil {
			return bookings, nil
		}
	}

	bookings, err := s.store.Bookings().ApprovedOnDate(ctx, labID, date)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, bookings)
	return bookings, nil
}

// cacheSet пишет значение в кэш; сбой кэша чтение не ломает
func (s *BookingService) cacheSet(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, e event.Event) {
	s.bus.Publish(ctx, event.NewEnvelope(s.clk.Now(), e))
}
