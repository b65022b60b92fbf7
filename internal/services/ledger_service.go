package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mayfinance/internal/amqp"
	"mayfinance/internal/core"
	"mayfinance/internal/export"
	"mayfinance/internal/ledger"
	"mayfinance/internal/ocr"
	"mayfinance/internal/receipt"
	"mayfinance/internal/sheets"
)

// Values stamped on transactions created from a scanned receipt.
const (
	ScanCategory = "Unknown"
	ScanNote     = "Added via OCR"
)

// ErrSheetsDisabled is returned by ExportToSheet when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("spreadsheet export not configured")

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Deps are the optional collaborators of a LedgerService. Nil members
// switch the matching feature off.
type Deps struct {
	Engine    ocr.Engine
	Publisher EventPublisher
	Sheets    sheets.LedgerExporter
	Now       func() time.Time
}

// NewTransaction is the user input for AddTransaction.
type NewTransaction struct {
	Date     core.Date
	Type     core.TxType
	Category string
	Amount   core.Money
	Note     string
	Receipt  []byte
}

// ScanResult is what a receipt scan produced. Recognition problems leave
// Text and Candidates empty and are reported in Status.
type ScanResult struct {
	Text       string
	Candidates []string
	Status     ScanStatus
}

type ScanStatus int

const (
	ScanOK ScanStatus = iota
	ScanUnavailable
	ScanFailed
)

// LedgerService is the API of one session's ledger.
type LedgerService struct {
	sessionID string
	store     ledger.Store
	deps      Deps
}

func NewLedgerService(sessionID string, store ledger.Store, deps Deps) *LedgerService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &LedgerService{sessionID: sessionID, store: store, deps: deps}
}

// SessionID returns the id of the owning session.
func (s *LedgerService) SessionID() string { return s.sessionID }

// OCRAvailable reports whether a recognition engine is configured.
func (s *LedgerService) OCRAvailable() bool { return s.deps.Engine != nil }

// SheetsEnabled reports whether ExportToSheet can succeed.
func (s *LedgerService) SheetsEnabled() bool { return s.deps.Sheets != nil }

// AddTransaction stores a new transaction and returns its id.
func (s *LedgerService) AddTransaction(ctx context.Context, in NewTransaction) (int64, error) {
	tx := core.Transaction{
		Date:     in.Date,
		Type:     in.Type,
		Category: in.Category,
		Amount:   in.Amount,
		Note:     in.Note,
		Receipt:  in.Receipt,
	}
	id, err := s.store.Append(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventAppended, s.sessionID)
	ev.TransactionID = id
	ev.AmountCents = in.Amount.Cents
	ev.Type = in.Type.String()
	s.publish(ctx, ev)
	return id, nil
}

// DeleteTransaction removes id. Deleting an unknown id is not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	ev := amqp.NewLedgerEvent(amqp.EventDeleted, s.sessionID)
	ev.TransactionID = id
	s.publish(ctx, ev)
	return nil
}

func (s *LedgerService) ResetLedger(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventReset, s.sessionID))
	return nil
}

// ListTransactions filters the ledger and summarizes what is kept.
func (s *LedgerService) ListTransactions(ctx context.Context, f core.Filter) (core.View, error) {
	if err := f.Validate(); err != nil {
		return core.View{}, err
	}
	all, err := s.store.Scan(ctx)
	if err != nil {
		return core.View{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Apply(all, f), nil
}

// Snapshot returns the whole ledger in insertion order.
func (s *LedgerService) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	all, err := s.store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return all, nil
}

// Find returns the transaction with id.
func (s *LedgerService) Find(ctx context.Context, id int64) (core.Transaction, bool, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return core.Transaction{}, false, err
	}
	for _, tx := range all {
		if tx.ID == id {
			return tx, true, nil
		}
	}
	return core.Transaction{}, false, nil
}

func (s *LedgerService) ExtractCandidateAmounts(text string) []string {
	return receipt.FindCandidates(text)
}

func (s *LedgerService) NormalizeAmount(candidate string) (core.Money, error) {
	return receipt.NormalizeAmount(candidate)
}

func (s *LedgerService) ExportCSV(rows []core.Transaction) ([]byte, error) {
	return export.CSV(rows)
}

// ScanReceipt recognizes text in img and proposes amounts. It never fails:
// a missing or failing engine yields an empty result.
func (s *LedgerService) ScanReceipt(ctx context.Context, img []byte) ScanResult {
	if s.deps.Engine == nil {
		return ScanResult{Status: ScanUnavailable}
	}
	text, err := s.deps.Engine.ExtractText(ctx, img)
	if err != nil {
		slog.WarnContext(ctx, "Receipt recognition failed",
			"engine", s.deps.Engine.Name(),
			"session_id", s.sessionID,
			"error", err)
		if errors.Is(err, ocr.ErrUnavailable) {
			return ScanResult{Status: ScanUnavailable}
		}
		return ScanResult{Status: ScanFailed}
	}
	return ScanResult{
		Text:       text,
		Candidates: receipt.FindCandidates(text),
		Status:     ScanOK,
	}
}

// AddFromCandidate records a picked candidate as today's expense with img
// attached.
func (s *LedgerService) AddFromCandidate(ctx context.Context, candidate string, img []byte) (int64, error) {
	amount, err := receipt.NormalizeAmount(candidate)
	if err != nil {
		return 0, err
	}
	return s.AddTransaction(ctx, NewTransaction{
		Date:     core.DateOf(s.deps.Now()),
		Type:     core.Expense,
		Category: ScanCategory,
		Amount:   amount,
		Note:     ScanNote,
		Receipt:  img,
	})
}

// ExportToSheet replaces the configured sheet with rows.
func (s *LedgerService) ExportToSheet(ctx context.Context, rows []core.Transaction) (int, error) {
	if s.deps.Sheets == nil {
		return 0, ErrSheetsDisabled
	}
	n, err := s.deps.Sheets.Export(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("export to sheet: %w", err)
	}
	return n, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishLedgerEvent(ctx, ev); err != nil {
		// The ledger change already happened.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind,
			"session_id", ev.SessionID,
			"error", err)
	}
}
