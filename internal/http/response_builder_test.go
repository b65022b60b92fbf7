package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// triggers decodes the HX-Trigger header of rec, nil when absent.
func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %q: %v", raw, err)
	}
	return out
}

type toast struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

func toastOf(t *testing.T, trig map[string]json.RawMessage) toast {
	t.Helper()
	var n toast
	if err := json.Unmarshal(trig[EventNotification], &n); err != nil {
		t.Fatalf("decode %s: %v", EventNotification, err)
	}
	return n
}

func TestHTMXResponseBuilder(t *testing.T) {
	tests := []struct {
		name       string
		build      func() *HTMXResponseBuilder
		wantStatus int
		wantBody   string
		wantEvents []string
		wantToast  toast
	}{
		{
			name:       "plain body",
			build:      func() *HTMXResponseBuilder { return NewHTMXResponse().BodyString("ok") },
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name: "ledger change with toast",
			build: func() *HTMXResponseBuilder {
				return NewHTMXResponse().TriggerLedgerChanged().TriggerSuccessNotification("Ledger cleared.")
			},
			wantStatus: http.StatusOK,
			wantEvents: []string{EventLedgerChanged, EventNotification},
			wantToast:  toast{Type: "success", Message: "Ledger cleared.", Duration: 3000},
		},
		{
			name:       "empty toast is dropped",
			build:      func() *HTMXResponseBuilder { return NewHTMXResponse().Status(http.StatusAccepted).TriggerSuccessNotification("") },
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "warning toast",
			build:      func() *HTMXResponseBuilder { return NewHTMXResponse().TriggerNotification(NotificationWarning, "No amounts found.", 1000) },
			wantStatus: http.StatusOK,
			wantEvents: []string{EventNotification},
			wantToast:  toast{Type: "warning", Message: "No amounts found.", Duration: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.build().Write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			trig := triggers(t, rec)
			if len(trig) != len(tt.wantEvents) {
				t.Fatalf("events = %v, want %v", trig, tt.wantEvents)
			}
			for _, ev := range tt.wantEvents {
				if _, ok := trig[ev]; !ok {
					t.Errorf("missing event %q", ev)
				}
			}
			if tt.wantToast != (toast{}) {
				if got := toastOf(t, trig); got != tt.wantToast {
					t.Errorf("toast = %+v, want %+v", got, tt.wantToast)
				}
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("invalid id"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("malformed amount"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("No receipt for this transaction."), http.StatusNotFound},
		{"internal", InternalServerError("Could not open your ledger."), http.StatusInternalServerError},
		{"rate limited", ErrorResponse(http.StatusTooManyRequests, "<b>slow down</b>"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.builder.Write(rec)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			n := toastOf(t, triggers(t, rec))
			if n.Type != "error" || n.Duration != 5000 {
				t.Errorf("toast = %+v", n)
			}
		})
	}

	rec := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, "<b>slow down</b>").Write(rec)
	if got, want := rec.Body.String(), `<div class="error">&lt;b&gt;slow down&lt;/b&gt;</div>`; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestDone(t *testing.T) {
	t.Run("form post redirects with notice", func(t *testing.T) {
		rec := httptest.NewRecorder()
		done(rec, httptest.NewRequest(http.MethodPost, "/transactions", nil), "/", "added")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/?notice=added" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("htmx gets triggers", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/transactions/delete", nil)
		r.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		done(rec, r, "/", "deleted")

		trig := triggers(t, rec)
		if _, ok := trig[EventLedgerChanged]; !ok || rec.Code != http.StatusOK {
			t.Fatalf("status %d, triggers %v", rec.Code, trig)
		}
		if n := toastOf(t, trig); n.Message != "Transaction deleted." {
			t.Errorf("toast = %+v", n)
		}
	})

	t.Run("unknown notice key", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?notice=bogus", nil)
		if got := noticeFrom(r); got != "" {
			t.Errorf("noticeFrom() = %q", got)
		}
	})
}
