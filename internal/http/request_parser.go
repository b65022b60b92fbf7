// Package http provides HTTP server and handler implementations.
//
// This file holds the request parsing helpers: ledger filters from query
// strings, the add-transaction form, file uploads and delete bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"mayfinance/internal/core"
	"mayfinance/internal/ocr"
	"mayfinance/internal/services"
)

var (
	errBadForm          = errors.New("malformed request")
	errUploadTooLarge   = errors.New("upload too large")
	errUnsupportedImage = errors.New("unsupported image, use PNG, JPEG or GIF")
	errUnsupportedFile  = errors.New("unsupported receipt, use PNG, JPEG, GIF or PDF")
)

// receiptTypes are the sniffed content types accepted as attachments.
var receiptTypes = []string{"image/png", "image/jpeg", "image/gif", "application/pdf"}

// filterForm is the dashboard filter as submitted and as re-rendered.
type filterForm struct {
	Applied    bool // the form was submitted at least once
	Categories []string
	Types      []string
	Month      string
}

func (f filterForm) HasCategory(c string) bool {
	return !f.Applied || slices.Contains(f.Categories, c)
}

func (f filterForm) HasType(t core.TxType) bool {
	return !f.Applied || slices.Contains(f.Types, t.String())
}

// Query encodes the form back into a query string.
func (f filterForm) Query() url.Values {
	q := url.Values{}
	if f.Applied {
		q.Set("f", "1")
		q["category"] = f.Categories
		q["type"] = f.Types
	}
	if f.Month != "" {
		q.Set("month", f.Month)
	}
	return q
}

// ParseFilter reads the dashboard filter from query parameters.
//
// Without the "f" marker categories and types are unrestricted. With it the
// listed values are the whole selection, so unticking every box selects
// nothing.
func ParseFilter(query url.Values) (core.Filter, filterForm, error) {
	form := filterForm{Month: strings.TrimSpace(query.Get("month"))}
	filter := core.Filter{Month: form.Month}

	if !query.Has("f") {
		return filter, form, filter.Validate()
	}
	form.Applied = true
	filter.Categories = []string{}
	filter.Types = []core.TxType{}
	for _, c := range query["category"] {
		if c = sanitizeInput(c); c != "" {
			filter.Categories = append(filter.Categories, c)
			form.Categories = append(form.Categories, c)
		}
	}
	for _, t := range query["type"] {
		typ, err := core.ParseTxType(t)
		if err != nil {
			return filter, form, err
		}
		filter.Types = append(filter.Types, typ)
		form.Types = append(form.Types, typ.String())
	}
	return filter, form, filter.Validate()
}

// transactionForm keeps the raw add-form values for re-rendering on error.
type transactionForm struct {
	Date     string
	Type     string
	Category string
	Amount   string
	Note     string
}

// parseMultipart parses a multipart or urlencoded body capped at limit bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	err := r.ParseMultipartForm(limit)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errUploadTooLarge
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errBadForm, err)
	}
	return nil
}

// ParseTransactionForm turns the add form into a NewTransaction. An empty
// date means today.
func ParseTransactionForm(r *http.Request, today time.Time) (services.NewTransaction, transactionForm, error) {
	form := transactionForm{
		Date:     strings.TrimSpace(r.FormValue("date")),
		Type:     strings.TrimSpace(r.FormValue("type")),
		Category: sanitizeInput(r.FormValue("category")),
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		Note:     sanitizeInput(r.FormValue("note")),
	}

	in := services.NewTransaction{Category: form.Category, Note: form.Note}
	if form.Date == "" {
		in.Date = core.DateOf(today)
		form.Date = in.Date.String()
	} else {
		d, err := core.ParseDate(form.Date)
		if err != nil {
			return in, form, err
		}
		in.Date = d
	}

	typ, err := core.ParseTxType(form.Type)
	if err != nil {
		return in, form, err
	}
	in.Type = typ

	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return in, form, err
	}
	in.Amount = amount
	return in, form, nil
}

// readUpload returns the bytes of an optional file field. A missing or
// empty file yields nil.
func readUpload(r *http.Request, field string, limit int64) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadForm, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", errBadForm, err)
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// readReceipt is readUpload for attachments, which are stored as sent but
// must sniff as an image or a PDF.
func readReceipt(r *http.Request, field string, limit int64) ([]byte, error) {
	data, err := readUpload(r, field, limit)
	if err != nil || data == nil {
		return data, err
	}
	if !slices.Contains(receiptTypes, http.DetectContentType(data)) {
		return nil, errUnsupportedFile
	}
	return data, nil
}

// readImage is readUpload for fields that must hold a decodable image.
func readImage(r *http.Request, field string, limit int64) ([]byte, string, error) {
	data, err := readUpload(r, field, limit)
	if err != nil || data == nil {
		return data, "", err
	}
	if _, err := ocr.ValidateImage(data); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errUnsupportedImage, err)
	}
	return data, http.DetectContentType(data), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadForm, s)
	}
	return id, nil
}

// RequestBodyParser reads a DELETE or POST body sent either as JSON or as
// form data, as HTMX and fetch callers do.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if p.err == nil && len(bytes.TrimSpace(p.body)) == 0 && r.URL.RawQuery != "" {
		p.body = []byte(r.URL.RawQuery)
	}
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errBadForm, err)
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(body))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadForm, p.err)
	}
	return p.err
}

// Get returns a sanitized value from whichever encoding was sent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
