package events

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=events

import (
	"context"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/internal/transport"
)

type EventRepository interface {
	Configured() bool
	AppendEvent(ctx context.Context, event models.InteractionEvent) error
}

type eventRepository struct {
	chain *transport.Chain
}

func NewEventRepository(chain *transport.Chain) EventRepository {
	return &eventRepository{chain: chain}
}

func (er *eventRepository) Configured() bool {
	return er.chain.Configured()
}

func (er *eventRepository) AppendEvent(ctx context.Context, event models.InteractionEvent) error {
	_, err := er.chain.Append(ctx, event)
	return err
}
