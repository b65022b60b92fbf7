// Package memory is an in-process stand-in for the spreadsheet export. It
// keeps the cells of the last export so they can be inspected.
package memory

import (
	"context"
	"errors"
	"sync"

	"mayfinance/internal/core"
	"mayfinance/internal/export"
	"mayfinance/internal/sheets"
)

// ErrUnavailable is returned by Export after Fail was called.
var ErrUnavailable = errors.New("sheet unavailable")

type Sheet struct {
	mu      sync.Mutex
	cells   [][]string
	exports int
	failing bool
}

var _ sheets.LedgerExporter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// Export replaces the sheet with the header and one row per transaction,
// receipts written as placeholders like the Google exporter does.
func (s *Sheet) Export(_ context.Context, rows []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return 0, ErrUnavailable
	}
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, append([]string(nil), export.Header...))
	cells = append(cells, export.Records(rows, export.ReceiptPlaceholder)...)
	s.cells = cells
	s.exports++
	return len(rows), nil
}

// Fail makes later exports return ErrUnavailable until called with false.
func (s *Sheet) Fail(on bool) {
	s.mu.Lock()
	s.failing = on
	s.mu.Unlock()
}

// Cells returns a copy of the current sheet contents, header first.
func (s *Sheet) Cells() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.cells))
	for i, row := range s.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Exports counts successful exports.
func (s *Sheet) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
