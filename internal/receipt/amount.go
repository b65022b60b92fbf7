// Package receipt finds monetary amounts in text recognized from a receipt.
//
// The scan is a best-effort heuristic: it proposes candidates, and the user
// picks the one that is actually the total.
package receipt

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"mayfinance/internal/core"
)

// ErrMalformedAmount is returned when a candidate holds no digits or does not
// fit the supported range. No transaction may be created from it.
var ErrMalformedAmount = errors.New("malformed amount")

// An optional Rupiah prefix, 1-3 leading digits, thousands groups separated
// by "." or ",", and an optional 2-digit fraction.
var amountRe = regexp.MustCompile(`(?:Rp\.?\s?)?(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?)`)

// Candidates yields the numeric part of every amount-shaped substring of
// text, in order of appearance, without deduplication. Spaces are removed
// before scanning, so "Rp 25.000" and "Rp25.000" read the same way. The
// sequence is pure and can be iterated any number of times.
func Candidates(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s := strings.ReplaceAll(text, " ", "")
		for pos := 0; pos < len(s); {
			loc := amountRe.FindStringSubmatchIndex(s[pos:])
			if loc == nil {
				return
			}
			if !yield(s[pos+loc[2] : pos+loc[3]]) {
				return
			}
			pos += loc[1]
		}
	}
}

// FindCandidates collects Candidates into a slice.
func FindCandidates(text string) []string {
	return slices.Collect(Candidates(text))
}

// NormalizeAmount turns a picked candidate into Money.
//
// Every non-digit is dropped. A digit string longer than two characters is
// read as minor units (divided by 100), a shorter one as whole units:
//
//	"12.500" -> 125.00
//	"Rp 50"  -> 50.00
//	"Rp."    -> ErrMalformedAmount
//
// This guesses where the decimal separator was. Plain quantities above 99
// are read as if they carried cents.
func NormalizeAmount(candidate string) (core.Money, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, candidate)
	if digits == "" {
		return core.Money{}, fmt.Errorf("%w: no digits in %q", ErrMalformedAmount, candidate)
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}
	if len(digits) > 2 {
		d = d.Shift(-2)
	}
	m, err := core.MoneyFromDecimal(d)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}
	return m, nil
}
