package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDateAndKeys(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-05" || d.MonthKey() != "2024-01" {
		t.Fatalf("unexpected formatting: %s %s", d.String(), d.MonthKey())
	}
	if _, err := ParseDate("05/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseTxType(t *testing.T) {
	for in, want := range map[string]TxType{"Income": Income, "expense": Expense, " INCOME ": Income} {
		got, err := ParseTxType(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v", in, got, err)
		}
	}
	if _, err := ParseTxType("transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if Income.Rank() >= Expense.Rank() {
		t.Fatalf("Income must sort before Expense")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero must be allowed, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionNormalizedAndValidate(t *testing.T) {
	tx := Transaction{
		Date:     NewDate(2025, 1, 1),
		Type:     Expense,
		Category: "   ",
		Amount:   Money{Cents: 100},
		Note:     "  lunch ",
	}.Normalized()
	if tx.Category != DefaultCategory {
		t.Fatalf("expected default category, got %q", tx.Category)
	}
	if tx.Note != "lunch" {
		t.Fatalf("expected trimmed note, got %q", tx.Note)
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, Type: Income, Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Type: "Transfer", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Type: Income, Amount: Money{Cents: -5}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestIDSourceMonotonic(t *testing.T) {
	fixed := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	src := NewIDSource(func() time.Time { return fixed })

	first := src.Next()
	if first != fixed.UnixMilli() {
		t.Fatalf("expected millisecond timestamp %d, got %d", fixed.UnixMilli(), first)
	}
	second := src.Next()
	if second != first+1 {
		t.Fatalf("expected bump to %d, got %d", first+1, second)
	}

	src.Observe(first + 100)
	if got := src.Next(); got != first+101 {
		t.Fatalf("expected %d after Observe, got %d", first+101, got)
	}
}
