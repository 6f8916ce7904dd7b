// Package transport moves rows between the services and the backing stores:
// a hosted script endpoint, the Google Sheets API and an optional SQL mirror.
// Providers are ordered once at startup into a Chain which tries them in turn.
package transport

//go:generate mockgen -source=provider.go -destination=mock_provider.go -package=transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/models"
)

// ErrNotConfigured is returned by an empty Chain. It is not a failure: the
// services answer with mock results instead.
var ErrNotConfigured = errors.New("no transport configured")

const (
	ProviderScript   = "script"
	ProviderSheets   = "sheets"
	ProviderDatabase = "database"
)

// Provider is one backing store for the row log.
type Provider interface {
	Name() string
	// Append writes exactly one row for the record.
	Append(ctx context.Context, record models.Record) (Receipt, error)
	// Rows returns every row in log order.
	Rows(ctx context.Context) ([]models.Row, error)
}

// Receipt describes an accepted write. Position is only set when the store
// itself reported a queue position.
type Receipt struct {
	Provider string
	Position int
}

// ExhaustedError is returned when every provider in the chain failed.
type ExhaustedError struct {
	Errors []error
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return "all transports failed: " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Errors
}

// StatusError is a non-2xx answer from an HTTP backed provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Provider, e.StatusCode)
}

func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// cellString renders a decoded JSON or Sheets cell as the string stored in the sheet.
func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

func cellsToRows(values [][]interface{}) []models.Row {
	rows := make([]models.Row, 0, len(values))
	for _, raw := range values {
		cells := make([]string, 0, len(raw))
		for _, v := range raw {
			cells = append(cells, cellString(v))
		}
		rows = append(rows, models.NormalizeRow(cells))
	}
	return rows
}

// unavailableProvider stands in for a store that is configured but could not
// be constructed, e.g. a sheet id without credentials. Every call fails, so
// writes report an error instead of silently switching to mock mode.
type unavailableProvider struct {
	name string
	err  error
}

func NewUnavailableProvider(name string, err error) Provider {
	return &unavailableProvider{name: name, err: err}
}

func (p *unavailableProvider) Name() string {
	return p.name
}

func (p *unavailableProvider) Append(context.Context, models.Record) (Receipt, error) {
	return Receipt{}, p.err
}

func (p *unavailableProvider) Rows(context.Context) ([]models.Row, error) {
	return nil, p.err
}
