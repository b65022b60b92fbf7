package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mayfinance/internal/amqp"
	"mayfinance/internal/core"
	"mayfinance/internal/ledger/memory"
	"mayfinance/internal/ocr"
	"mayfinance/internal/receipt"
)

type fakeEngine struct {
	text string
	err  error
}

func (f fakeEngine) ExtractText(context.Context, []byte) (string, error) { return f.text, f.err }
func (f fakeEngine) Name() string                                        { return "fake" }

type fakePublisher struct {
	events []*amqp.LedgerEvent
	err    error
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

type fakeSheets struct {
	rows []core.Transaction
	err  error
}

func (f *fakeSheets) Export(_ context.Context, rows []core.Transaction) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rows = rows
	return len(rows), nil
}

func newService(deps Deps) *LedgerService {
	return NewLedgerService("session-1", memory.New(), deps)
}

func TestLedgerService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newService(Deps{})

	d := core.NewDate(2024, 1, 5)
	incID, err := s.AddTransaction(ctx, NewTransaction{Date: d, Type: core.Income, Amount: core.Money{Cents: 10000000}})
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	expID, err := s.AddTransaction(ctx, NewTransaction{Date: d, Type: core.Expense, Amount: core.Money{Cents: 4000000}})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if expID <= incID {
		t.Fatalf("ids must increase: %d then %d", incID, expID)
	}

	v, err := s.ListTransactions(ctx, core.Filter{Types: []core.TxType{core.Income, core.Expense}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if v.Totals.Income.Cents != 10000000 || v.Totals.Expense.Cents != 4000000 || v.Totals.Balance.Cents != 6000000 {
		t.Fatalf("unexpected totals: %+v", v.Totals)
	}
	if len(v.Daily) != 2 {
		t.Fatalf("expected two chart points, got %d", len(v.Daily))
	}
	for _, r := range v.Rows {
		if r.Category != core.DefaultCategory {
			t.Fatalf("expected default category, got %q", r.Category)
		}
	}

	if err := s.DeleteTransaction(ctx, incID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, incID); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	all, _ := s.Snapshot(ctx)
	if len(all) != 1 || all[0].ID != expID {
		t.Fatalf("unexpected ledger after delete: %+v", all)
	}

	if err := s.ResetLedger(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v, _ = s.ListTransactions(ctx, core.Filter{})
	if !v.Empty() {
		t.Fatalf("expected empty ledger after reset")
	}
}

func TestLedgerService_ListRejectsBadMonth(t *testing.T) {
	s := newService(Deps{})
	if _, err := s.ListTransactions(context.Background(), core.Filter{Month: "01-2024"}); !errors.Is(err, core.ErrInvalidMonthFilter) {
		t.Fatalf("expected ErrInvalidMonthFilter, got %v", err)
	}
}

func TestLedgerService_AddValidationError(t *testing.T) {
	s := newService(Deps{})
	_, err := s.AddTransaction(context.Background(), NewTransaction{Type: core.Expense})
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestLedgerService_PublishesEventsAndIgnoresFailures(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	s := newService(Deps{Publisher: pub})

	id, err := s.AddTransaction(ctx, NewTransaction{Date: core.NewDate(2024, 1, 5), Type: core.Income, Amount: core.Money{Cents: 5}})
	if err != nil {
		t.Fatalf("publish failure must not fail the add: %v", err)
	}
	_ = s.DeleteTransaction(ctx, id)
	_ = s.ResetLedger(ctx)

	if len(pub.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(pub.events))
	}
	kinds := []amqp.EventKind{amqp.EventAppended, amqp.EventDeleted, amqp.EventReset}
	for i, k := range kinds {
		if pub.events[i].Kind != k || pub.events[i].SessionID != "session-1" {
			t.Fatalf("event %d: %+v", i, pub.events[i])
		}
	}
	if pub.events[0].TransactionID != id || pub.events[0].AmountCents != 5 || pub.events[0].Type != "Income" {
		t.Fatalf("unexpected append event: %+v", pub.events[0])
	}
}

func TestLedgerService_ScanReceipt(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		engine     ocr.Engine
		wantStatus ScanStatus
		wantCands  []string
	}{
		{"no engine", nil, ScanUnavailable, nil},
		{"engine unavailable", fakeEngine{err: ocr.ErrUnavailable}, ScanUnavailable, nil},
		{"engine failure", fakeEngine{err: ocr.ErrRecognition}, ScanFailed, nil},
		{"recognized", fakeEngine{text: "Total Rp 25.000 terima kasih"}, ScanOK, []string{"25.000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(Deps{Engine: tt.engine})
			res := s.ScanReceipt(ctx, []byte("img"))
			if res.Status != tt.wantStatus {
				t.Fatalf("status = %v, want %v", res.Status, tt.wantStatus)
			}
			if strings.Join(res.Candidates, "|") != strings.Join(tt.wantCands, "|") {
				t.Fatalf("candidates = %v, want %v", res.Candidates, tt.wantCands)
			}
		})
	}
}

func TestLedgerService_AddFromCandidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
	s := newService(Deps{Now: func() time.Time { return now }})

	id, err := s.AddFromCandidate(ctx, "12.500", []byte("receipt"))
	if err != nil {
		t.Fatalf("add from candidate: %v", err)
	}
	tx, ok, err := s.Find(ctx, id)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if tx.Type != core.Expense || tx.Category != ScanCategory || tx.Note != ScanNote {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.Amount.Cents != 12500 || tx.Date.String() != "2024-03-09" || string(tx.Receipt) != "receipt" {
		t.Fatalf("unexpected values: amount=%d date=%s receipt=%q", tx.Amount.Cents, tx.Date, tx.Receipt)
	}

	if _, err := s.AddFromCandidate(ctx, "Rp.", nil); !errors.Is(err, receipt.ErrMalformedAmount) {
		t.Fatalf("expected ErrMalformedAmount, got %v", err)
	}
	all, _ := s.Snapshot(ctx)
	if len(all) != 1 {
		t.Fatalf("malformed candidate must not create a transaction")
	}
}

func TestLedgerService_ExportCSVAndSheet(t *testing.T) {
	ctx := context.Background()
	sh := &fakeSheets{}
	s := newService(Deps{Sheets: sh})
	_, _ = s.AddTransaction(ctx, NewTransaction{Date: core.NewDate(2024, 1, 5), Type: core.Income, Amount: core.Money{Cents: 10000000}})

	all, _ := s.Snapshot(ctx)
	data, err := s.ExportCSV(all)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.Contains(string(data), ",2024-01-05,Income,Other,100000.00,,") {
		t.Fatalf("unexpected csv: %s", data)
	}

	n, err := s.ExportToSheet(ctx, all)
	if err != nil || n != 1 || len(sh.rows) != 1 {
		t.Fatalf("export to sheet: n=%d err=%v", n, err)
	}

	disabled := newService(Deps{})
	if _, err := disabled.ExportToSheet(ctx, all); !errors.Is(err, ErrSheetsDisabled) {
		t.Fatalf("expected ErrSheetsDisabled, got %v", err)
	}
	if disabled.SheetsEnabled() || disabled.OCRAvailable() {
		t.Fatalf("optional features should be reported off")
	}
}
