package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mayfinance/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = New(context.Background(), Config{
		SpreadsheetID:      "id",
		ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{SpreadsheetID: "id"}, false},
		{Config{SpreadsheetID: "id", ServiceAccountJSON: "{}"}, true},
		{Config{SpreadsheetID: " ", ServiceAccountFile: "/tmp/sa.json"}, false},
		{Config{SpreadsheetID: "id", ServiceAccountFile: "/tmp/sa.json"}, true},
	}
	for i, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("case %d: Enabled() = %v, want %v", i, got, tt.want)
		}
	}
}

func TestValues(t *testing.T) {
	rows := []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Type: core.Income, Category: "Other", Amount: core.Money{Cents: 10000000}},
		{ID: 2, Date: core.NewDate(2024, 1, 5), Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 4000000}, Receipt: []byte("img")},
	}
	v := values(rows)
	if len(v) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(v))
	}
	if v[0][0] != "id" || v[0][6] != "receipt" {
		t.Fatalf("unexpected header: %v", v[0])
	}
	if v[1][4] != "100000.00" || v[1][6] != "" {
		t.Fatalf("unexpected first row: %v", v[1])
	}
	if v[2][6] != "attached" {
		t.Fatalf("receipt should be a placeholder, got %v", v[2][6])
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("My Ledger"); got != "'My Ledger'" {
		t.Fatalf("got %q", got)
	}
	if got := quoteSheet("Bob's"); got != "'Bob''s'" {
		t.Fatalf("got %q", got)
	}
}

func TestExporter_ExportClearsThenWrites(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		body  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			calls = append(calls, "clear")
		case r.Method == http.MethodPut:
			calls = append(calls, "update")
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q, want RAW", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	exp := NewWithService(svc, "sheet-id", "")

	n, err := exp.Export(ctx, []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Type: core.Income, Category: "Other", Amount: core.Money{Cents: 100}},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row written, got %d", n)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(calls, ",") != "clear,update" {
		t.Fatalf("unexpected call order: %v", calls)
	}
	if len(body.Values) != 2 || body.Values[1][2] != "Income" {
		t.Fatalf("unexpected values sent: %v", body.Values)
	}
}

func TestExporter_NilService(t *testing.T) {
	exp := &Exporter{spreadsheetID: "id", sheetName: "Ledger"}
	if _, err := exp.Export(context.Background(), nil); err == nil {
		t.Fatalf("expected error with nil service")
	}
}
