package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"uems/internal/log"
	"uems/internal/sheets"
	"uems/internal/views"
)

// Publisher writes rendered tables into tabs of one spreadsheet.
type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ sheets.TablePublisher = (*Publisher)(nil)

// NewFromEnv creates a publisher using service account credentials.
// Required: GOOGLE_SPREADSHEET_ID.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Publisher, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opts, err := credentialOptions(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewPublisher(ctx, spreadsheetID, logger, opts...)
}

// NewPublisher builds a publisher over the given client options.
func NewPublisher(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Publisher, error) {
	if logger == nil {
		logger = log.Discard()
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Publisher{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// credentialOptions reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func credentialOptions(ctx context.Context, logger *log.Logger) ([]goption.ClientOption, error) {
	if logger == nil {
		logger = log.Discard()
	}
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read credentials file", "path", serviceAccountFile, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// PublishTable clears the tab, creating it when missing, and writes the
// header row plus the formatted rows. Values are entered as a user would
// type them so grouped numbers stay numeric.
func (p *Publisher) PublishTable(ctx context.Context, sheet string, m views.TableModel) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if sheet == "" {
		sheet = sheets.SheetTitle(m)
	}

	if err := p.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	rng := quoteSheet(sheet)
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	grid := sheets.Grid(m)
	vr := &gsheet.ValueRange{Values: toValues(grid)}
	target := rng + "!A1"
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, target, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", target, err)
	}

	p.logger.InfoContext(ctx, "Published table",
		log.FieldView, m.View,
		log.FieldTable, m.ID,
		log.FieldRows, len(grid)-1,
		log.FieldSheetsRef, target,
		log.FieldOperation, log.OpPublish)
	return nil
}

func (p *Publisher) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", p.spreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	p.logger.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return nil
}

// quoteSheet wraps a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toValues(grid [][]string) [][]any {
	out := make([][]any, len(grid))
	for i, row := range grid {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
