package waitlist

import (
	"context"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/go-playground/validator/v10"
)

type WaitlistService interface {
	// Join records a signup and reports the queue position. Without any
	// configured store it succeeds in mock mode and writes nothing.
	Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	validate   *validator.Validate
	now        func() time.Time
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{
		logger:     logger,
		repository: repository,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
	}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	normalized := normalizeRequest(req)
	if err := s.validate.StructCtx(ctx, normalized); err != nil {
		logger.Warn("Rejected waitlist submission", "error", err)
		return nil, apperrors.NewValidationError("Invalid waitlist submission", err)
	}

	if !s.repository.Configured() {
		logger.Info("No transport configured; returning mock waitlist position")
		return &JoinWaitlistResponse{Success: true, Mock: true, Position: constants.MockQueuePosition}, nil
	}

	receipt, err := s.repository.AppendEntry(ctx, ToWaitlistEntryModel(normalized, s.now()))
	if err != nil {
		logger.Error("Failed to append waitlist entry", "error", err)
		return nil, apperrors.NewTransportError("Failed to join waitlist", err)
	}

	response := &JoinWaitlistResponse{Success: true, Position: receipt.Position}
	if response.Position > 0 {
		return response, nil
	}

	// The count includes the row just written.
	count, err := s.repository.CountEntries(ctx, receipt.Provider)
	if err != nil {
		logger.Warn("Queue position unavailable", "provider", receipt.Provider, "error", err)
		return response, nil
	}

	response.Position = constants.QueuePositionBase + count
	logger.Info("Waitlist entry recorded", "provider", receipt.Provider, "position", response.Position)

	return response, nil
}
