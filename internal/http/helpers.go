package http

import (
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mayfinance/internal/core"
)

// rupiah groups thousands with dots, as Indonesian readers expect.
var rupiah = message.NewPrinter(language.Indonesian)

// formatRupiah renders an amount as "Rp 1.000.000", adding ",50" style
// decimals only when the amount has cents.
func formatRupiah(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	s := sign + "Rp " + rupiah.Sprintf("%d", cents/100)
	if rem := cents % 100; rem != 0 {
		s += fmt.Sprintf(",%02d", rem)
	}
	return s
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

var templateFuncs = template.FuncMap{
	"rupiah": formatRupiah,
	"isIncome": func(t core.TxType) bool {
		return t == core.Income
	},
}
