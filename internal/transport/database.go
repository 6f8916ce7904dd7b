package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/akeren/waitlist-foundry/internal/models"
	"gorm.io/gorm"
)

// DatabaseProvider keeps the row log in the sheet_rows table. It only ever
// inserts, mirroring the append-only sheet.
type DatabaseProvider struct {
	db *gorm.DB
}

func NewDatabaseProvider(db *gorm.DB) (*DatabaseProvider, error) {
	if db == nil {
		return nil, errors.New("database: db is nil")
	}
	return &DatabaseProvider{db: db}, nil
}

func (p *DatabaseProvider) Name() string {
	return ProviderDatabase
}

func (p *DatabaseProvider) Append(ctx context.Context, record models.Record) (Receipt, error) {
	row := models.SheetRowFromRow(models.Encode(record))

	if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
		return Receipt{}, fmt.Errorf("database: insert row: %w", err)
	}

	return Receipt{}, nil
}

func (p *DatabaseProvider) Rows(ctx context.Context) ([]models.Row, error) {
	var stored []models.SheetRow

	if err := p.db.WithContext(ctx).Order("id asc").Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("database: read rows: %w", err)
	}

	rows := make([]models.Row, 0, len(stored))
	for i := range stored {
		rows = append(rows, stored[i].Row())
	}

	return rows, nil
}
