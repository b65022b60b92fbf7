package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mayfinance/internal/core"
)

// MemoryDSN keeps the whole database inside the process.
const MemoryDSN = ":memory:"

// Repository owns the database shared by every session ledger.
type Repository struct {
	db *sql.DB
}

// Open connects to dsn and applies migrations. File DSNs get their parent
// directory created.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if !isMemory(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: ":memory:" is per connection, and SQLite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db}, nil
}

func isMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ForSession returns the ledger of one session. Rows left from an earlier
// handle for the same session stay visible and new ids are allocated
// above them.
func (r *Repository) ForSession(ctx context.Context, sessionID string) (*Store, error) {
	s := &Store{db: r.db, session: sessionID, ids: core.NewIDSource(time.Now)}
	var maxID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(id) FROM transactions WHERE session_id = ?`, sessionID).Scan(&maxID)
	if err != nil {
		return nil, fmt.Errorf("load last id: %w", err)
	}
	if maxID.Valid {
		s.ids.Observe(maxID.Int64)
	}
	return s, nil
}

// Store is a session-scoped view over the transactions table.
type Store struct {
	db      *sql.DB
	session string
	ids     *core.IDSource
}

func (s *Store) Append(ctx context.Context, tx core.Transaction) (int64, error) {
	tx = tx.Normalized()
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	tx.ID = s.ids.Next()

	var receipt any
	if tx.HasReceipt() {
		receipt = tx.Receipt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (session_id, id, date, type, category, amount_cents, note, receipt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, tx.ID, tx.Date.String(), tx.Type.String(), tx.Category, tx.Amount.Cents, tx.Note, receipt)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"session_id", s.session,
		"id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return tx.ID, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE session_id = ? AND id = ?`, s.session, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE session_id = ?`, s.session); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, type, category, amount_cents, note, receipt
		 FROM transactions WHERE session_id = ? ORDER BY seq`, s.session)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			date    string
			typ     string
			receipt []byte
		)
		if err := rows.Scan(&tx.ID, &date, &typ, &tx.Category, &tx.Amount.Cents, &tx.Note, &receipt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		if tx.Type, err = core.ParseTxType(typ); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		if len(receipt) > 0 {
			tx.Receipt = receipt
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
