package http

import (
	"errors"
	"net/http"
	"strconv"

	"mayfinance/internal/core"
	applog "mayfinance/internal/log"
	"mayfinance/internal/services"
	"mayfinance/internal/session"
)

type reportData struct {
	pageData
	Count    int
	Receipts int
	ByType   []core.TypeTotal
	Totals   core.Totals
}

// handleReport sums the whole ledger by type.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	all, err := sess.Ledger.Snapshot(ctx)
	if err != nil {
		s.fail(w, r, err, "Could not load your ledger.")
		return
	}
	view, err := sess.Ledger.ListTransactions(ctx, core.Filter{})
	if err != nil {
		s.fail(w, r, err, "Could not load your ledger.")
		return
	}

	data := reportData{
		pageData: s.page(r, sess, "Report", "report"),
		Count:    len(all),
		ByType:   core.TotalsByType(all),
		Totals:   view.Totals,
	}
	for _, tx := range all {
		if tx.HasReceipt() {
			data.Receipts++
		}
	}
	s.render(w, r, http.StatusOK, "report.html", data)
}

// handleExportCSV downloads the whole ledger, or with scope=view the rows
// that pass the dashboard filter.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		rows     []core.Transaction
		err      error
		filename = "mayfinance-transactions.csv"
	)
	switch q.Get("scope") {
	case "", "all":
		rows, err = sess.Ledger.Snapshot(ctx)
	case "view":
		var filter core.Filter
		filter, _, err = ParseFilter(q)
		if err == nil {
			var view core.View
			view, err = sess.Ledger.ListTransactions(ctx, filter)
			rows = view.Rows
		}
		filename = "mayfinance-filtered.csv"
	default:
		err = errBadForm
	}
	if err != nil {
		s.fail(w, r, err, "Could not export your ledger.")
		return
	}

	body, err := sess.Ledger.ExportCSV(rows)
	if err != nil {
		s.fail(w, r, err, "Could not export your ledger.")
		return
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentExport).InfoContext(ctx, "Ledger exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldRows, len(rows),
		"format", "csv")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// handleExportSheets replaces the configured spreadsheet with the ledger.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()

	all, err := sess.Ledger.Snapshot(ctx)
	if err != nil {
		s.fail(w, r, err, "Could not load your ledger.")
		return
	}
	n, err := sess.Ledger.ExportToSheet(ctx, all)
	switch {
	case errors.Is(err, services.ErrSheetsDisabled):
		NotFoundError("Google Sheets export is not configured.").Write(w)
		return
	case err != nil:
		s.events.LogError(ctx, "Spreadsheet export failed", err, applog.ComponentSheets, applog.OpExport,
			applog.NewFields().WithSession(sess.ID))
		ErrorResponse(http.StatusBadGateway, "Google Sheets rejected the export, try again later.").Write(w)
		return
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentSheets).InfoContext(ctx, "Ledger exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldRows, n,
		"format", "sheets")
	done(w, r, "/report", "exported")
}

type settingsData struct {
	pageData
	Settings  Settings
	SessionID string
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.render(w, r, http.StatusOK, "settings.html", settingsData{
		pageData:  s.page(r, sess, "Settings", "settings"),
		Settings:  s.settings,
		SessionID: sess.ID,
	})
}

// handleReset empties the ledger and drops any pending scan.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	if err := sess.Ledger.ResetLedger(ctx); err != nil {
		s.fail(w, r, err, "Could not reset your ledger.")
		return
	}
	sess.SetPending(nil)
	applog.FromContext(ctx).WithComponent(applog.ComponentLedger).InfoContext(ctx, "Ledger reset",
		applog.FieldOperation, applog.OpReset)
	done(w, r, "/", "reset")
}
