package analytics

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=analytics

import (
	"context"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/internal/transport"
)

type AnalyticsRepository interface {
	Configured() bool
	// Rows returns the full row log from the first provider that answers.
	Rows(ctx context.Context) ([]models.Row, error)
}

type analyticsRepository struct {
	chain *transport.Chain
}

func NewAnalyticsRepository(chain *transport.Chain) AnalyticsRepository {
	return &analyticsRepository{chain: chain}
}

func (ar *analyticsRepository) Configured() bool {
	return ar.chain.Configured()
}

func (ar *analyticsRepository) Rows(ctx context.Context) ([]models.Row, error) {
	return ar.chain.Rows(ctx)
}
