package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/models"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetTab = "Sheet1"

	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
)

type SheetsConfig struct {
	SpreadsheetID       string
	Tab                 string
	ServiceAccountEmail string
	PrivateKey          string
}

// Credentials reports whether a service account is configured.
func (c SheetsConfig) Credentials() bool {
	return c.ServiceAccountEmail != "" && c.PrivateKey != ""
}

// NormalizePrivateKey turns literal "\n" sequences, as stored in most .env
// files, into real newlines.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
}

// SheetsProvider appends to and reads from columns A:F of a single tab.
type SheetsProvider struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewSheetsProvider authenticates with the service-account key in cfg. Extra
// client options replace that authentication; tests use them to point the
// client at a fake server.
func NewSheetsProvider(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsProvider, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}

	if len(opts) == 0 {
		if !cfg.Credentials() {
			return nil, errors.New("sheets: service account email and private key are required")
		}

		jwtConfig := &jwt.Config{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: []byte(NormalizePrivateKey(cfg.PrivateKey)),
			Scopes:     []string{sheets.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithHTTPClient(jwtConfig.Client(ctx)))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	tab := strings.TrimSpace(cfg.Tab)
	if tab == "" {
		tab = DefaultSheetTab
	}

	return &SheetsProvider{svc: svc, spreadsheetID: cfg.SpreadsheetID, tab: tab}, nil
}

func (p *SheetsProvider) Name() string {
	return ProviderSheets
}

// rowRange quotes the tab so names with spaces, "!" or quotes stay valid A1.
func (p *SheetsProvider) rowRange() string {
	return "'" + strings.ReplaceAll(p.tab, "'", "''") + "'!A:F"
}

func (p *SheetsProvider) Append(ctx context.Context, record models.Record) (Receipt, error) {
	row := models.Encode(record)

	cells := make([]interface{}, 0, len(row))
	for _, c := range row {
		cells = append(cells, c)
	}

	_, err := p.svc.Spreadsheets.Values.
		Append(p.spreadsheetID, p.rowRange(), &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	if err != nil {
		return Receipt{}, wrapSheetsError("append", err)
	}

	return Receipt{}, nil
}

func (p *SheetsProvider) Rows(ctx context.Context) ([]models.Row, error) {
	resp, err := p.svc.Spreadsheets.Values.
		Get(p.spreadsheetID, p.rowRange()).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapSheetsError("read", err)
	}

	return cellsToRows(resp.Values), nil
}

func wrapSheetsError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("sheets: %s: %w: %s", op, &StatusError{Provider: ProviderSheets, StatusCode: apiErr.Code}, apiErr.Message)
	}
	return fmt.Errorf("sheets: %s: %w", op, err)
}
