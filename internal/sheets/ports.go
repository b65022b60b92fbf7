package sheets

import (
	"context"

	"mayfinance/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter replaces the contents of a remote sheet with rows.
	LedgerExporter interface {
		Export(ctx context.Context, rows []core.Transaction) (written int, err error)
	}
)
