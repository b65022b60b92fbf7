// Package export encodes ledger rows as delimited text.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"mayfinance/internal/core"
)

// Header is the first record of every export.
var Header = []string{"id", "date", "type", "category", "amount", "note", "receipt"}

// ReceiptMode selects how the receipt column is rendered.
type ReceiptMode int

const (
	// ReceiptBase64 writes the attachment as standard base64 text.
	ReceiptBase64 ReceiptMode = iota
	// ReceiptPlaceholder writes "attached" or nothing. Used where cells are
	// size-limited, like spreadsheets.
	ReceiptPlaceholder
)

const placeholder = "attached"

// Record renders one transaction as a row matching Header.
func Record(tx core.Transaction, mode ReceiptMode) []string {
	receipt := ""
	if tx.HasReceipt() {
		switch mode {
		case ReceiptPlaceholder:
			receipt = placeholder
		default:
			receipt = base64.StdEncoding.EncodeToString(tx.Receipt)
		}
	}
	return []string{
		strconv.FormatInt(tx.ID, 10),
		tx.Date.String(),
		tx.Type.String(),
		tx.Category,
		tx.Amount.String(),
		tx.Note,
		receipt,
	}
}

// Records renders rows in input order, without the header.
func Records(rows []core.Transaction, mode ReceiptMode) [][]string {
	out := make([][]string, 0, len(rows))
	for _, tx := range rows {
		out = append(out, Record(tx, mode))
	}
	return out
}

// WriteCSV writes the header and one record per row to w.
func WriteCSV(w io.Writer, rows []core.Transaction, mode ReceiptMode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range rows {
		if err := cw.Write(Record(tx, mode)); err != nil {
			return fmt.Errorf("write row %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the full export with receipts base64-encoded.
// An empty ledger yields only the header line.
func CSV(rows []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, ReceiptBase64); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
