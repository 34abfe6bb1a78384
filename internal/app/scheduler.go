package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/lab_booking/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	draftService *service.DraftService
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(draftService *service.DraftService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		draftService: draftService,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runDraftPurgeTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runDraftPurgeTask периодически удаляет устаревшие черновики
func (s *Scheduler) runDraftPurgeTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.purgeDrafts(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeDrafts(ctx)
		case <-s.stopChan:
			s.logger.Info("Draft purge task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Draft purge task cancelled")
			return
		}
	}
}

// purgeDrafts удаляет черновики, чей целевой месяц уже закончился —
// их окно подтверждения прошло и подтвердить их больше нельзя
func (s *Scheduler) purgeDrafts(ctx context.Context) {
	deleted, err := s.draftService.PurgeStale(ctx)
	if err != nil {
		s.logger.Error("Failed to purge stale drafts", zap.Error(err))
		return
	}

	s.logger.Info("Draft purge completed", zap.Int64("deleted", deleted))
}
