package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/porkyfarm/porcpro/internal/config"
)

// ErrEmptyRange is returned when no A1 range is supplied.
var ErrEmptyRange = errors.New("sheet range must not be empty")

// Writer is the spreadsheet surface used by the ledger export.
type Writer interface {
	// ReplaceRange clears sheetRange and writes rows starting at its top-left cell.
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository writes ranges through the Google Sheets API. Each farm
// gets its own tab, created on first export.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger

	mu   sync.Mutex
	tabs map[string]bool
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra client options are appended after the credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	service, err := sheetsapi.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReplaceRange creates the tab of sheetRange when missing, clears the range and
// writes rows from its first cell.
func (r *GoogleSheetRepository) ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return ErrEmptyRange
	}
	if err := r.ensureTab(ctx, TabOf(sheetRange)); err != nil {
		return err
	}

	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, sheetRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", sheetRange, err)
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("write range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range replaced", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

func (r *GoogleSheetRepository) ensureTab(ctx context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tabs == nil {
		doc, err := r.service.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("list tabs of %s: %w", r.spreadsheetID, err)
		}
		r.tabs = make(map[string]bool, len(doc.Sheets))
		for _, s := range doc.Sheets {
			if s.Properties != nil {
				r.tabs[s.Properties.Title] = true
			}
		}
	}
	if r.tabs[title] {
		return nil
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{{
		AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: title}},
	}}}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", title, err)
	}
	r.tabs[title] = true
	r.logger.Info("sheet tab created", zap.String("tab", title))
	return nil
}

// TabOf returns the tab title of an A1 range, unquoting 'My tab'!A:B forms.
func TabOf(sheetRange string) string {
	tab, _, _ := strings.Cut(sheetRange, "!")
	if len(tab) >= 2 && strings.HasPrefix(tab, "'") && strings.HasSuffix(tab, "'") {
		tab = strings.ReplaceAll(tab[1:len(tab)-1], "''", "'")
	}
	return tab
}
