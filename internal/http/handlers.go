package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"mayfinance/internal/core"
	applog "mayfinance/internal/log"
	"mayfinance/internal/receipt"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the ledger storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"sessions": s.sessions.Len(),
		"rate_limiter": map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"rejected":       s.limiter.Rejected(),
		},
	}
	if err := s.ready(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// render executes a page template. Pages are small, so a failed render
// only needs a log line and a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": name})
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// done finishes a state-changing request. HTMX callers get triggers and a
// notification; plain form posts are redirected with a notice.
func done(w http.ResponseWriter, r *http.Request, target, notice string) {
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerLedgerChanged().
			TriggerSuccessNotification(notices[notice]).
			Write(w)
		return
	}
	u := url.URL{Path: target}
	if notice != "" {
		u.RawQuery = url.Values{"notice": {notice}}.Encode()
	}
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// notices are the flash messages a redirect can ask for by key.
var notices = map[string]string{
	"added":    "Transaction added.",
	"deleted":  "Transaction deleted.",
	"reset":    "Ledger cleared.",
	"exported": "Ledger exported to Google Sheets.",
}

func noticeFrom(r *http.Request) string {
	return notices[r.URL.Query().Get("notice")]
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, receipt.ErrMalformedAmount),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidMonthFilter),
		errors.Is(err, core.ErrNoteTooLong),
		errors.Is(err, core.ErrCategoryTooLong),
		errors.Is(err, errUnsupportedImage),
		errors.Is(err, errUnsupportedFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadForm):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
