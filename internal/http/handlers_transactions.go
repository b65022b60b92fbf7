package http

import (
	"net/http"
	"strconv"
	"time"

	"mayfinance/internal/core"
	applog "mayfinance/internal/log"
	"mayfinance/internal/session"
)

type addData struct {
	pageData
	Form  transactionForm
	Types []core.TxType
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.renderAdd(w, r, sess, http.StatusOK, transactionForm{
		Date: core.DateOf(time.Now()).String(),
		Type: core.Expense.String(),
	}, "")
}

func (s *Server) renderAdd(w http.ResponseWriter, r *http.Request, sess *session.Session, code int, form transactionForm, errMsg string) {
	data := addData{
		pageData: s.page(r, sess, "Add transaction", "add"),
		Form:     form,
		Types:    core.Types(),
	}
	data.Error = errMsg
	s.render(w, r, code, "add.html", data)
}

// handleCreateTransaction stores a manual entry with an optional receipt.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if err := parseMultipart(w, r, s.maxUpload); err != nil {
		logger.WarnContext(ctx, "Add form rejected", applog.FieldError, err)
		s.renderAdd(w, r, sess, statusFor(err), transactionForm{}, err.Error())
		return
	}

	in, form, err := ParseTransactionForm(r, time.Now())
	if err != nil {
		s.renderAdd(w, r, sess, statusFor(err), form, err.Error())
		return
	}
	img, err := readReceipt(r, "receipt", s.maxUpload)
	if err != nil {
		s.renderAdd(w, r, sess, statusFor(err), form, err.Error())
		return
	}
	in.Receipt = img

	id, err := sess.Ledger.AddTransaction(ctx, in)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.events.LogError(ctx, "Failed to add transaction", err, applog.ComponentLedger, applog.OpAdd,
				applog.NewFields().WithSession(sess.ID))
			s.renderAdd(w, r, sess, code, form, "Could not save the transaction.")
			return
		}
		s.renderAdd(w, r, sess, code, form, err.Error())
		return
	}

	s.events.LogTransactionAdded(ctx, sess.ID, id, in.Type.String(), in.Category, in.Amount.Cents, img != nil)
	done(w, r, "/", "added")
}

// handleDeleteTransaction removes one transaction. Unknown ids succeed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, err, "")
		return
	}
	id, err := parseID(p.Get("id"))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	if err := sess.Ledger.DeleteTransaction(ctx, id); err != nil {
		s.fail(w, r, err, "Could not delete the transaction.")
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete)
	done(w, r, "/", "deleted")
}

// handleReceipt serves a stored receipt image.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	tx, ok, err := sess.Ledger.Find(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Could not load the receipt.")
		return
	}
	if !ok || !tx.HasReceipt() {
		NotFoundError("No receipt for this transaction.").Write(w)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(tx.Receipt))
	w.Header().Set("Content-Disposition", `inline; filename="receipt-`+strconv.FormatInt(id, 10)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(tx.Receipt)))
	_, _ = w.Write(tx.Receipt)
}

// fail writes an error response. Client errors show err itself; server
// errors are logged and show msg.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	ctx := r.Context()
	code := statusFor(err)
	logger := applog.FromContext(ctx)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Request failed", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		if msg == "" {
			msg = http.StatusText(code)
		}
		ErrorResponse(code, msg).Write(w)
		return
	}
	logger.WarnContext(ctx, "Request rejected", applog.FieldError, err, applog.FieldPath, r.URL.Path)
	ErrorResponse(code, err.Error()).Write(w)
}
