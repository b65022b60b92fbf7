package core

// Totals summarizes a set of transactions.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money // Income - Expense
}

// DailyPoint is the sum of amounts for one (date, type) pair.
type DailyPoint struct {
	Date   Date
	Type   TxType
	Amount Money
}

// TypeTotal is an amount aggregated by transaction type.
type TypeTotal struct {
	Type   TxType
	Amount Money
	Count  int
}

// View is the filtered projection of a ledger that the dashboard renders.
type View struct {
	Rows   []Transaction // most recent date first
	Totals Totals
	Daily  []DailyPoint // date ascending, Income before Expense
}

// Empty reports whether no transaction passed the filter.
func (v View) Empty() bool {
	return len(v.Rows) == 0
}
