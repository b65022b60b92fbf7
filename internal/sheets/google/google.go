package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mayfinance/internal/core"
	"mayfinance/internal/export"
	ports "mayfinance/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Ledger"

// Config locates the spreadsheet and the service account allowed to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Enabled reports whether enough is configured to try an export.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != "" &&
		(strings.TrimSpace(c.ServiceAccountJSON) != "" || strings.TrimSpace(c.ServiceAccountFile) != "")
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.LedgerExporter = (*Exporter)(nil)

// New creates an exporter authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheetName
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// Export clears the sheet and writes the header followed by one row per
// transaction. It returns the number of transactions written.
func (e *Exporter) Export(ctx context.Context, rows []core.Transaction) (int, error) {
	if e.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	all := quoteSheet(e.sheetName) + "!A:G"
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("clear %s: %w", all, err)
	}

	target := quoteSheet(e.sheetName) + "!A1"
	vr := &gsheet.ValueRange{Values: values(rows)}
	// RAW keeps notes such as "=1+1" from being evaluated as formulas.
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, target, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("update %s: %w", target, err)
	}

	slog.InfoContext(ctx, "Ledger exported to Google Sheets",
		"sheet", e.sheetName,
		"rows", len(rows))
	return len(rows), nil
}

// values builds the cell matrix: header first, receipts as placeholders.
func values(rows []core.Transaction) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, toAny(export.Header))
	for _, rec := range export.Records(rows, export.ReceiptPlaceholder) {
		out = append(out, toAny(rec))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
