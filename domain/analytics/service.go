package analytics

import (
	"context"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
)

// AnalyticsService reads the row log. Reads never fail: any error yields the
// empty mock snapshot.
type AnalyticsService interface {
	Fetch(ctx context.Context) models.AnalyticsSnapshot
	Summary(ctx context.Context) models.Summary
}

type analyticsService struct {
	logger     *log.Logger
	repository AnalyticsRepository
}

func NewAnalyticsService(logger *log.Logger, repository AnalyticsRepository) AnalyticsService {
	return &analyticsService{logger: logger, repository: repository}
}

func (s *analyticsService) Fetch(ctx context.Context) models.AnalyticsSnapshot {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if !s.repository.Configured() {
		logger.Debug("No transport configured; serving mock analytics")
		return models.EmptySnapshot()
	}

	rows, err := s.repository.Rows(ctx)
	if err != nil {
		logger.Error("Failed to read analytics rows", "error", err)
		return models.EmptySnapshot()
	}

	snapshot := models.Decode(rows)
	logger.Info("Analytics fetched", "signups", len(snapshot.Waitlist), "events", len(snapshot.Events))

	return snapshot
}

func (s *analyticsService) Summary(ctx context.Context) models.Summary {
	return models.Summarize(s.Fetch(ctx))
}
