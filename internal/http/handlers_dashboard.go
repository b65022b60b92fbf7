package http

import (
	"html/template"
	"net/http"

	"mayfinance/internal/core"
	applog "mayfinance/internal/log"
	"mayfinance/internal/session"
)

// pageData is shared by every full page.
type pageData struct {
	Title  string
	Active string
	Notice string
	Error  string
	OCR    bool
	Sheets bool
}

func (s *Server) page(r *http.Request, sess *session.Session, title, active string) pageData {
	return pageData{
		Title:  title,
		Active: active,
		Notice: noticeFrom(r),
		OCR:    sess.Ledger.OCRAvailable(),
		Sheets: sess.Ledger.SheetsEnabled(),
	}
}

type dashboardData struct {
	pageData
	Filter        filterForm
	AllCategories []string
	Months        []string
	Types         []core.TxType
	Totals        core.Totals
	Rows          []core.Transaction
	Chart         dailyChart
	LedgerEmpty   bool
	ExportURL     template.URL
}

// handleDashboard renders filters, totals, the daily chart and the table.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	all, err := sess.Ledger.Snapshot(ctx)
	if err != nil {
		s.fail(w, r, err, "Could not load your ledger.")
		return
	}

	data := dashboardData{
		pageData:      s.page(r, sess, "Dashboard", "dashboard"),
		AllCategories: core.Categories(all),
		Months:        core.Months(all),
		Types:         core.Types(),
		LedgerEmpty:   len(all) == 0,
	}

	code := http.StatusOK
	filter, form, err := ParseFilter(r.URL.Query())
	if err != nil {
		logger.WarnContext(ctx, "Invalid dashboard filter", applog.FieldError, err, applog.FieldQuery, r.URL.RawQuery)
		code = statusFor(err)
		data.Error = err.Error()
		filter, form = core.Filter{}, filterForm{}
	}
	data.Filter = form

	view, err := sess.Ledger.ListTransactions(ctx, filter)
	if err != nil {
		s.fail(w, r, err, "Could not filter your ledger.")
		return
	}
	data.Totals = view.Totals
	data.Rows = view.Rows
	data.Chart = buildDailyChart(view.Daily)

	q := form.Query()
	q.Set("scope", "view")
	data.ExportURL = template.URL("/export.csv?" + q.Encode())

	s.render(w, r, code, "dashboard.html", data)
}
