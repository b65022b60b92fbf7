package http

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"

	"mayfinance/internal/core"
	applog "mayfinance/internal/log"
	"mayfinance/internal/services"
	"mayfinance/internal/session"
)

var errNoPendingScan = errors.New("no scanned receipt is waiting, upload one first")

type candidateOption struct {
	Raw     string
	Display string
	Valid   bool
}

type scanData struct {
	pageData
	Pending    bool
	Preview    template.URL
	Text       string
	Status     string
	Candidates []candidateOption
}

func scanStatus(st services.ScanStatus) string {
	switch st {
	case services.ScanOK:
		return "ok"
	case services.ScanUnavailable:
		return "unavailable"
	}
	return "failed"
}

func (s *Server) renderScan(w http.ResponseWriter, r *http.Request, sess *session.Session, code int, errMsg string) {
	data := scanData{pageData: s.page(r, sess, "Scan receipt", "scan")}
	data.Error = errMsg

	if p := sess.Pending(); p != nil {
		data.Pending = true
		// The content type was sniffed from an image that decoded, so the
		// data URL cannot carry script.
		data.Preview = template.URL("data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Image))
		data.Text = p.Text
		data.Status = scanStatus(p.Status)
		for _, c := range p.Candidates {
			opt := candidateOption{Raw: c, Display: c}
			if m, err := sess.Ledger.NormalizeAmount(c); err == nil {
				opt.Display = formatRupiah(m)
				opt.Valid = true
			}
			data.Candidates = append(data.Candidates, opt)
		}
	}
	s.render(w, r, code, "scan.html", data)
}

func (s *Server) handleScanPage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.renderScan(w, r, sess, http.StatusOK, "")
}

// handleScanUpload recognizes an uploaded receipt and keeps it on the
// session until the user picks an amount.
func (s *Server) handleScanUpload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentScan)

	if err := parseMultipart(w, r, s.maxUpload); err != nil {
		s.renderScan(w, r, sess, statusFor(err), err.Error())
		return
	}
	img, contentType, err := readImage(r, "receipt", s.maxUpload)
	if err != nil {
		logger.WarnContext(ctx, "Receipt upload rejected", applog.FieldError, err)
		s.renderScan(w, r, sess, statusFor(err), err.Error())
		return
	}
	if img == nil {
		s.renderScan(w, r, sess, http.StatusUnprocessableEntity, "Choose an image to scan.")
		return
	}

	res := sess.Ledger.ScanReceipt(ctx, img)
	sess.SetPending(&session.PendingScan{
		Image:       img,
		ContentType: contentType,
		Text:        res.Text,
		Candidates:  res.Candidates,
		Status:      res.Status,
	})
	logger.InfoContext(ctx, "Receipt scanned",
		applog.FieldOperation, applog.OpScan,
		"status", scanStatus(res.Status),
		applog.FieldCandidates, len(res.Candidates),
		"bytes", len(img))

	http.Redirect(w, r, "/scan", http.StatusSeeOther)
}

// handleScanConfirm adds the picked or typed amount as today's expense with
// the pending receipt attached.
func (s *Server) handleScanConfirm(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()

	if err := parseMultipart(w, r, s.maxUpload); err != nil {
		s.renderScan(w, r, sess, statusFor(err), err.Error())
		return
	}
	pending := sess.Pending()
	if pending == nil {
		s.renderScan(w, r, sess, http.StatusConflict, errNoPendingScan.Error())
		return
	}

	candidate := sanitizeInput(r.FormValue("manual"))
	if candidate == "" {
		candidate = sanitizeInput(r.FormValue("candidate"))
	}

	id, err := sess.Ledger.AddFromCandidate(ctx, candidate, pending.Image)
	if err != nil {
		code := statusFor(err)
		msg := err.Error()
		if code >= http.StatusInternalServerError {
			s.events.LogError(ctx, "Failed to add scanned receipt", err, applog.ComponentScan, applog.OpConfirm,
				applog.NewFields().WithSession(sess.ID))
			msg = "Could not save the transaction."
		}
		s.renderScan(w, r, sess, code, msg)
		return
	}
	sess.TakePending()

	amount, _ := sess.Ledger.NormalizeAmount(candidate)
	s.events.LogTransactionAdded(ctx, sess.ID, id, core.Expense.String(), services.ScanCategory, amount.Cents, true)
	done(w, r, "/", "added")
}
