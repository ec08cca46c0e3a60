// Package parse pulls structured ledger fields out of free-form chat text.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ledgercat/internal/core"
)

// Candidate is the best-effort field extraction for one message. Date is
// always populated (defaulting to today); Amount/Item only when Extract
// returned nil.
type Candidate struct {
	Date   string // YYYY-MM-DD
	Item   string
	Amount int64 // magnitude, never negative
}

var (
	dateRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}`)
	amountRe = regexp.MustCompile(`[+-]?\d+`)
	intRe    = regexp.MustCompile(`\d+`)
	pureInt  = regexp.MustCompile(`^\d+$`)
)

// Extract applies the field precedence to msg: an explicit date literal is
// consumed first, then the first signed amount token, then the label
// adjacent to it. A message with no amount token yields core.ErrNoAmount;
// callers treat that as "ask again", never as a failure.
func Extract(msg string, today time.Time) (Candidate, error) {
	c := Candidate{Item: core.DefaultItem}
	c.Date, msg = SplitDate(msg, today)

	loc := amountRe.FindStringIndex(msg)
	if loc == nil {
		return c, core.ErrNoAmount
	}
	tok := msg[loc[0]:loc[1]]
	if tok[0] == '+' || tok[0] == '-' {
		tok = tok[1:]
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return c, core.ErrNoAmount
	}
	c.Amount = n

	if item := adjacentLabel(msg[:loc[0]], msg[loc[1]:]); item != "" {
		c.Item = item
	}
	return c, nil
}

// SplitDate consumes the first date literal in msg, returning the
// normalized date (today's when none is present) and the remaining text.
func SplitDate(msg string, today time.Time) (string, string) {
	msg = strings.TrimSpace(msg)
	if loc := dateRe.FindStringIndex(msg); loc != nil {
		if d, ok := normalizeDate(msg[loc[0]:loc[1]], today); ok {
			return d, strings.TrimSpace(msg[:loc[0]] + msg[loc[1]:])
		}
	}
	return core.FormatDate(today), msg
}

// adjacentLabel picks the longest contiguous non-digit, non-whitespace run
// touching the amount token, preferring the left side ("洗頭300", "洗頭 -200")
// over the right ("300 午餐").
func adjacentLabel(before, after string) string {
	left := lastLabel(before)
	right := firstLabel(after)
	if len(left) >= len(right) {
		if left != "" {
			return left
		}
		return right
	}
	return right
}

func lastLabel(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cleanLabel(fields[len(fields)-1])
}

func firstLabel(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cleanLabel(fields[0])
}

func cleanLabel(s string) string {
	s = strings.Trim(s, "+-0123456789")
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return "" // digits inside a label mean it was not a label
		}
	}
	return s
}

// normalizeDate converts a date literal to the stored form. M/D is read
// against today's year.
func normalizeDate(lit string, today time.Time) (string, bool) {
	if strings.Contains(lit, "/") {
		parts := strings.SplitN(lit, "/", 2)
		m, err1 := strconv.Atoi(parts[0])
		d, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", today.Year(), m, d), true
	}
	if _, err := time.Parse("2006-01-02", lit); err != nil {
		return "", false
	}
	return lit, true
}

// Integer reports whether msg is a bare unsigned integer, as required by
// the budget entry flow.
func Integer(msg string) (int64, bool) {
	msg = strings.TrimSpace(msg)
	if !pureInt.MatchString(msg) {
		return 0, false
	}
	n, err := strconv.ParseInt(msg, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Integers returns every integer appearing in msg, in order, as typed by
// the user (duplicates preserved). Used by the deletion flow.
func Integers(msg string) []int {
	var out []int
	for _, tok := range intRe.FindAllString(msg, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
