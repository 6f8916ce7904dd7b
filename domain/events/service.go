package events

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
)

// EventService records interaction events. Tracking is best effort: it never
// reports a failure to the caller.
type EventService interface {
	Track(ctx context.Context, eventName, page, metadata string)
}

type eventService struct {
	logger     *log.Logger
	repository EventRepository
	now        func() time.Time
}

func NewEventService(logger *log.Logger, repository EventRepository) EventService {
	return &eventService{
		logger:     logger,
		repository: repository,
		now:        time.Now,
	}
}

func (s *eventService) Track(ctx context.Context, eventName, page, metadata string) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		logger.Warn("Dropping event without a name")
		return
	}

	if !s.repository.Configured() {
		logger.Debug("No transport configured; event not recorded", "event", eventName)
		return
	}

	page = strings.TrimSpace(page)
	if page == "" {
		page = constants.DefaultEventPage
	}

	event := models.InteractionEvent{
		Timestamp: constants.FormatTimestamp(s.now()),
		EventName: eventName,
		Page:      page,
		Metadata:  metadata,
	}

	if err := s.repository.AppendEvent(ctx, event); err != nil {
		logger.Error("Failed to track event", "event", eventName, "error", err)
	}
}
