package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/herdbook/herdbook/internal/config"
	"github.com/herdbook/herdbook/internal/domain/models"
)

const summaryRange = "Breeding!A:L"

// SummarySink receives daily per-farm breeding summaries.
type SummarySink interface {
	AppendSummary(ctx context.Context, farmID string, date time.Time, counts map[models.Phase]int) error
}

// GoogleSheetSink implements SummarySink using the official Google Sheets API.
type GoogleSheetSink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetSink builds a Google Sheets backed summary sink.
func NewGoogleSheetSink(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetSink{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSummary appends one row: date, farm id, then one count per phase in
// enumeration order.
func (s *GoogleSheetSink) AppendSummary(ctx context.Context, farmID string, date time.Time, counts map[models.Phase]int) error {
	values := make([]interface{}, 0, 2+len(models.AllPhases()))
	values = append(values, models.FormatDate(date), farmID)
	for _, phase := range models.AllPhases() {
		values = append(values, counts[phase])
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, summaryRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append summary row for farm %s: %w", farmID, err)
	}

	s.logger.Debug("summary row appended", zap.String("farm_id", farmID))
	return nil
}
