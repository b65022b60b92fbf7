package core

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Filter selects transactions for a View.
//
// A nil Categories or Types slice leaves that dimension unrestricted; a
// non-nil empty slice matches nothing. An empty Month matches every month.
type Filter struct {
	Categories []string
	Types      []TxType
	Month      string // YYYY-MM
}

// Validate checks the month key format.
func (f Filter) Validate() error {
	if f.Month == "" {
		return nil
	}
	if _, err := time.Parse(monthLayout, f.Month); err != nil || len(f.Month) != len(monthLayout) {
		return fmt.Errorf("%w: %q", ErrInvalidMonthFilter, f.Month)
	}
	return nil
}

// Match reports whether t passes every predicate of the filter.
func (f Filter) Match(t Transaction) bool {
	if f.Categories != nil && !slices.Contains(f.Categories, t.Category) {
		return false
	}
	if f.Types != nil && !slices.Contains(f.Types, t.Type) {
		return false
	}
	if f.Month != "" && t.Date.MonthKey() != f.Month {
		return false
	}
	return true
}

// Apply filters all and derives totals and the daily series. The input is
// expected in insertion order; it is not modified.
func Apply(all []Transaction, f Filter) View {
	kept := make([]Transaction, 0, len(all))
	for _, t := range all {
		if f.Match(t) {
			kept = append(kept, t)
		}
	}

	var v View
	v.Totals = sumTotals(kept)
	v.Daily = dailySeries(kept)

	// Stable sort keeps insertion order as the base; ids grow with insertion,
	// so ties on date show the most recently inserted first.
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].Date.Equal(kept[j].Date.Time) {
			return kept[i].Date.After(kept[j].Date.Time)
		}
		return kept[i].ID > kept[j].ID
	})
	v.Rows = kept
	return v
}

func sumTotals(rows []Transaction) Totals {
	var t Totals
	for _, r := range rows {
		switch r.Type {
		case Income:
			t.Income = t.Income.Add(r.Amount)
		case Expense:
			t.Expense = t.Expense.Add(r.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

type dayKey struct {
	date string
	typ  TxType
}

func dailySeries(rows []Transaction) []DailyPoint {
	if len(rows) == 0 {
		return nil
	}
	index := make(map[dayKey]int)
	var out []DailyPoint
	for _, r := range rows {
		k := dayKey{date: r.Date.String(), typ: r.Type}
		if i, ok := index[k]; ok {
			out[i].Amount = out[i].Amount.Add(r.Amount)
			continue
		}
		index[k] = len(out)
		out = append(out, DailyPoint{Date: r.Date, Type: r.Type, Amount: r.Amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].Type.Rank() < out[j].Type.Rank()
	})
	return out
}

// TotalsByType sums rows per type in enum order. Types with no rows are
// reported with a zero amount.
func TotalsByType(rows []Transaction) []TypeTotal {
	out := make([]TypeTotal, 0, 2)
	for _, typ := range Types() {
		tt := TypeTotal{Type: typ}
		for _, r := range rows {
			if r.Type == typ {
				tt.Amount = tt.Amount.Add(r.Amount)
				tt.Count++
			}
		}
		out = append(out, tt)
	}
	return out
}

// Categories returns the distinct categories of rows, sorted.
func Categories(rows []Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// Months returns the distinct YYYY-MM keys of rows, most recent first.
func Months(rows []Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := r.Date.MonthKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
