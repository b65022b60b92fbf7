package memory

import (
	"context"
	"errors"
	"testing"

	"mayfinance/internal/core"
)

func TestSheetExportReplacesContents(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 5, 1), Type: core.Income, Category: "Salary", Amount: core.Money{Cents: 10000000}},
		{ID: 2, Date: core.NewDate(2024, 5, 2), Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 4000000}, Receipt: []byte{1}},
	}
	n, err := s.Export(ctx, rows)
	if err != nil || n != 2 {
		t.Fatalf("Export() = %d, %v", n, err)
	}
	cells := s.Cells()
	if len(cells) != 3 || cells[0][0] != "id" || cells[1][4] != "100000.00" || cells[2][6] != "attached" {
		t.Fatalf("unexpected cells: %v", cells)
	}

	if _, err := s.Export(ctx, rows[:1]); err != nil {
		t.Fatalf("second Export() error = %v", err)
	}
	if got := len(s.Cells()); got != 2 {
		t.Errorf("sheet should be replaced, has %d rows", got)
	}
	if s.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", s.Exports())
	}

	cells = s.Cells()
	cells[0][0] = "changed"
	if s.Cells()[0][0] != "id" {
		t.Error("Cells() must return a copy")
	}
}

func TestSheetFail(t *testing.T) {
	s := New()
	s.Fail(true)
	if _, err := s.Export(context.Background(), nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Export() error = %v, want ErrUnavailable", err)
	}
	s.Fail(false)
	if _, err := s.Export(context.Background(), nil); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(s.Cells()) != 1 {
		t.Errorf("empty export should leave only the header")
	}
}
