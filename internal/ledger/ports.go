package ledger

import (
	"context"

	"mayfinance/internal/core"
)

// Store is the per-session ledger: an insertion-ordered sequence of
// transactions with unique ids.
type Store interface {
	// Append validates tx, assigns a fresh id (any caller id is ignored)
	// and stores it at the end of the ledger.
	Append(ctx context.Context, tx core.Transaction) (int64, error)
	// Delete removes the transaction with id. Unknown ids are a no-op.
	Delete(ctx context.Context, id int64) error
	// Reset empties the ledger.
	Reset(ctx context.Context) error
	// Scan returns a copy of every transaction in insertion order.
	Scan(ctx context.Context) ([]core.Transaction, error)
}
