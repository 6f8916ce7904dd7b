package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

import (
	"context"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/internal/transport"
)

type WaitlistRepository interface {
	// Configured reports whether any backing store exists; false means mock mode.
	Configured() bool
	// AppendEntry writes one waitlist row through the transport chain.
	AppendEntry(ctx context.Context, entry models.WaitlistEntry) (transport.Receipt, error)
	// CountEntries counts the waitlist rows held by the named provider.
	CountEntries(ctx context.Context, provider string) (int, error)
}

type waitlistRepository struct {
	chain *transport.Chain
}

func NewWaitlistRepository(chain *transport.Chain) WaitlistRepository {
	return &waitlistRepository{chain: chain}
}

func (wr *waitlistRepository) Configured() bool {
	return wr.chain.Configured()
}

func (wr *waitlistRepository) AppendEntry(ctx context.Context, entry models.WaitlistEntry) (transport.Receipt, error) {
	return wr.chain.Append(ctx, entry)
}

func (wr *waitlistRepository) CountEntries(ctx context.Context, provider string) (int, error) {
	rows, err := wr.chain.RowsFrom(ctx, provider)
	if err != nil {
		return 0, err
	}

	return models.CountKind(rows, models.KindWaitlist), nil
}
