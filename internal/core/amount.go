package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Amount extraction bounds. Values outside this range are treated as noise
// (message IDs, phone numbers, timestamps) rather than money.
const (
	MinAmount = 0.01
	MaxAmount = 1_000_000.00
)

var (
	currencyAmountRe = regexp.MustCompile(`\$\s?([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)`)
	bareAmountRe     = regexp.MustCompile(`\b([0-9]{1,3}(?:,[0-9]{3})*\.[0-9]{2}|[0-9]{1,6}(?:\.[0-9]{1,2})?)\b`)
)

// ExtractAmount pulls a monetary amount from an item. Currency-marked
// tokens ($250.00) beat bare numbers, and the body beats header fields so
// phone numbers and message IDs in metadata never win. When nothing in
// range is found it falls back to fallback and reports that it did so.
func ExtractAmount(body string, header map[string]string, fallback float64) (amount float64, usedFallback bool) {
	if v, ok := firstAmountIn(body); ok {
		return v, false
	}
	// Only the explicit amount header is consulted; scanning arbitrary
	// metadata would pick up message ids and phone numbers.
	if amt, ok := header["amount"]; ok {
		if v, ok := parseAmountToken(amt); ok {
			return v, false
		}
	}
	return fallback, true
}

// firstAmountIn scans text for the first in-range amount, trying
// currency-marked tokens before bare numbers.
func firstAmountIn(text string) (float64, bool) {
	for _, m := range currencyAmountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmountToken(m[1]); ok {
			return v, true
		}
	}
	for _, idx := range bareAmountRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[2], idx[3]
		if isNumberFragment(text, start, end) {
			continue
		}
		if v, ok := parseAmountToken(text[start:end]); ok {
			return v, true
		}
	}
	return 0, false
}

// isNumberFragment reports whether a bare match is a slice of a larger
// number (e.g. the "99" in "99,000,000") rather than a value on its own.
func isNumberFragment(text string, start, end int) bool {
	if start > 0 && (text[start-1] == ',' || text[start-1] == '.') {
		return true
	}
	if end < len(text) && (text[end] == ',' || text[end] == '.') {
		if end+1 < len(text) && text[end+1] >= '0' && text[end+1] <= '9' {
			return true
		}
	}
	return false
}

// parseAmountToken parses a numeric token and applies the sanity range.
func parseAmountToken(token string) (float64, bool) {
	token = strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "$")), ",", "")
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	if v < MinAmount || v > MaxAmount {
		return 0, false
	}
	return v, true
}

// FormatAmount renders an amount the way drafts and invoices carry it.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
