package core

import (
	"errors"
	"testing"
)

func sampleLedger() []Transaction {
	return []Transaction{
		{ID: 1, Date: NewDate(2024, 1, 5), Type: Income, Category: "Salary", Amount: Money{Cents: 10000000}},
		{ID: 2, Date: NewDate(2024, 1, 5), Type: Expense, Category: "Food", Amount: Money{Cents: 4000000}},
		{ID: 3, Date: NewDate(2024, 2, 1), Type: Expense, Category: "Transport", Amount: Money{Cents: 150000}},
		{ID: 4, Date: NewDate(2024, 1, 3), Type: Expense, Category: "Food", Amount: Money{Cents: 250000}},
		{ID: 5, Date: NewDate(2024, 1, 5), Type: Expense, Category: "Food", Amount: Money{Cents: 100000}},
	}
}

func TestApplyEndToEndExample(t *testing.T) {
	all := []Transaction{
		{ID: 1, Date: NewDate(2024, 1, 5), Type: Income, Category: "Other", Amount: Money{Cents: 10000000}},
		{ID: 2, Date: NewDate(2024, 1, 5), Type: Expense, Category: "Other", Amount: Money{Cents: 4000000}},
	}
	v := Apply(all, Filter{Types: []TxType{Income, Expense}})

	if v.Totals.Income.Cents != 10000000 || v.Totals.Expense.Cents != 4000000 || v.Totals.Balance.Cents != 6000000 {
		t.Fatalf("unexpected totals: %+v", v.Totals)
	}
	if len(v.Daily) != 2 {
		t.Fatalf("expected two daily points, got %d", len(v.Daily))
	}
	if v.Daily[0].Type != Income || v.Daily[1].Type != Expense {
		t.Fatalf("expected Income before Expense, got %v, %v", v.Daily[0].Type, v.Daily[1].Type)
	}
	for _, p := range v.Daily {
		if p.Date.String() != "2024-01-05" {
			t.Fatalf("unexpected date %s", p.Date)
		}
	}
}

func TestApplyFilters(t *testing.T) {
	all := sampleLedger()
	tests := []struct {
		name    string
		filter  Filter
		wantIDs []int64
	}{
		{"unrestricted", Filter{}, []int64{3, 5, 2, 1, 4}},
		{"category", Filter{Categories: []string{"Food"}}, []int64{5, 2, 4}},
		{"type", Filter{Types: []TxType{Income}}, []int64{1}},
		{"month", Filter{Month: "2024-02"}, []int64{3}},
		{"combined", Filter{Categories: []string{"Food", "Salary"}, Types: []TxType{Expense}, Month: "2024-01"}, []int64{5, 2, 4}},
		{"empty category set", Filter{Categories: []string{}}, nil},
		{"empty type set", Filter{Types: []TxType{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Apply(all, tt.filter)
			if len(v.Rows) != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", len(v.Rows), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if v.Rows[i].ID != id {
					t.Fatalf("row %d: got id %d, want %d", i, v.Rows[i].ID, id)
				}
			}
		})
	}
}

func TestApplyTotalsIdentity(t *testing.T) {
	all := sampleLedger()
	filters := []Filter{
		{},
		{Categories: []string{"Food"}},
		{Types: []TxType{Expense}},
		{Month: "2024-01"},
		{Month: "1999-01"},
		{Categories: []string{}},
	}
	for _, f := range filters {
		v := Apply(all, f)
		if v.Totals.Income.Cents-v.Totals.Expense.Cents != v.Totals.Balance.Cents {
			t.Fatalf("balance identity broken for %+v: %+v", f, v.Totals)
		}
		var inc, exp int64
		for _, r := range all {
			if !f.Match(r) {
				continue
			}
			if r.Type == Income {
				inc += r.Amount.Cents
			} else {
				exp += r.Amount.Cents
			}
		}
		if inc != v.Totals.Income.Cents || exp != v.Totals.Expense.Cents {
			t.Fatalf("totals mismatch for %+v: want %d/%d got %+v", f, inc, exp, v.Totals)
		}
	}
}

func TestApplyEmptyIsNoData(t *testing.T) {
	v := Apply(nil, Filter{})
	if !v.Empty() || len(v.Daily) != 0 {
		t.Fatalf("expected empty view, got %+v", v)
	}
	if v.Totals.Income.Cents != 0 || v.Totals.Expense.Cents != 0 || v.Totals.Balance.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", v.Totals)
	}
}

func TestApplyDailySeriesGroupsAndOrders(t *testing.T) {
	v := Apply(sampleLedger(), Filter{})
	want := []struct {
		date  string
		typ   TxType
		cents int64
	}{
		{"2024-01-03", Expense, 250000},
		{"2024-01-05", Income, 10000000},
		{"2024-01-05", Expense, 4100000},
		{"2024-02-01", Expense, 150000},
	}
	if len(v.Daily) != len(want) {
		t.Fatalf("got %d points, want %d", len(v.Daily), len(want))
	}
	for i, w := range want {
		p := v.Daily[i]
		if p.Date.String() != w.date || p.Type != w.typ || p.Amount.Cents != w.cents {
			t.Fatalf("point %d: got %s/%s/%d want %s/%s/%d", i, p.Date, p.Type, p.Amount.Cents, w.date, w.typ, w.cents)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	all := sampleLedger()
	_ = Apply(all, Filter{})
	for i, tx := range all {
		if tx.ID != int64(i+1) {
			t.Fatalf("input reordered at %d: id %d", i, tx.ID)
		}
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (Filter{Month: "2024-01"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, m := range []string{"2024-1", "2024/01", "January", "2024-13"} {
		if err := (Filter{Month: m}).Validate(); !errors.Is(err, ErrInvalidMonthFilter) {
			t.Fatalf("%q: expected ErrInvalidMonthFilter, got %v", m, err)
		}
	}
}

func TestOptionsAndTotalsByType(t *testing.T) {
	all := sampleLedger()
	cats := Categories(all)
	if len(cats) != 3 || cats[0] != "Food" || cats[1] != "Salary" || cats[2] != "Transport" {
		t.Fatalf("unexpected categories: %v", cats)
	}
	months := Months(all)
	if len(months) != 2 || months[0] != "2024-02" || months[1] != "2024-01" {
		t.Fatalf("unexpected months: %v", months)
	}
	byType := TotalsByType(all)
	if len(byType) != 2 || byType[0].Type != Income || byType[0].Amount.Cents != 10000000 || byType[1].Count != 4 {
		t.Fatalf("unexpected totals by type: %+v", byType)
	}
}

func TestApplyTotalsStayPositiveAtCeiling(t *testing.T) {
	all := []Transaction{
		{ID: 1, Date: NewDate(2024, 1, 5), Type: Income, Category: "Other", Amount: MaxAmount},
		{ID: 2, Date: NewDate(2024, 1, 5), Type: Income, Category: "Other", Amount: MaxAmount},
	}
	v := Apply(all, Filter{})
	if v.Totals.Income.Cents != 2*MaxAmount.Cents || v.Totals.Balance.Cents != 2*MaxAmount.Cents {
		t.Fatalf("unexpected totals: %+v", v.Totals)
	}
	if v.Daily[0].Amount.Cents != 2*MaxAmount.Cents {
		t.Fatalf("unexpected daily sum: %+v", v.Daily[0])
	}

	over := Transaction{Date: NewDate(2024, 1, 5), Type: Income, Amount: Money{Cents: 9223372036854775800}}
	if err := over.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected an amount above the ceiling to be rejected, got %v", err)
	}
}
