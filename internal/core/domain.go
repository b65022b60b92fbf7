package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"

	// DefaultCategory is stored when a transaction is created without one.
	DefaultCategory = "Other"

	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       int64
		Date     Date
		Type     TxType
		Category string
		Amount   Money
		Note     string
		Receipt  []byte // raw upload, nil when nothing is attached
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidMonthFilter = errors.New("invalid month filter")
	ErrNoteTooLong        = errors.New("note too long (max 500 characters)")
	ErrCategoryTooLong    = errors.New("category too long (max 100 characters)")
)

// Types lists every transaction type in enum order.
func Types() []TxType {
	return []TxType{Income, Expense}
}

// ParseTxType accepts the canonical names case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Rank orders types as Income before Expense.
func (t TxType) Rank() int {
	switch t {
	case Income:
		return 0
	case Expense:
		return 1
	}
	return 2
}

func (t TxType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey formats the date as YYYY-MM, the key used by month filters.
func (d Date) MonthKey() string {
	return d.Format(monthLayout)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmount.Cents {
		return fmt.Errorf("%w: above %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

// HasReceipt reports whether a receipt blob is attached.
func (t Transaction) HasReceipt() bool {
	return len(t.Receipt) > 0
}

// Normalized trims text fields and applies the category default.
func (t Transaction) Normalized() Transaction {
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	t.Note = strings.TrimSpace(t.Note)
	return t
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Category) > 100 {
		return ErrCategoryTooLong
	}
	if len(t.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

// IDSource hands out transaction ids: the creation time in UTC milliseconds,
// bumped past the previous id when the clock has not moved forward.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns a fresh id, strictly greater than every id it returned before.
func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UTC().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe makes later ids greater than id. Stores call it when they load
// existing rows.
func (s *IDSource) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
