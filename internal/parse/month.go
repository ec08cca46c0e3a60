package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	monthLitRe  = regexp.MustCompile(`(\d{4})[-/](\d{1,2})`)
	bareMonthRe = regexp.MustCompile(`(\d{1,2})月`)
	cjkMonthRe  = regexp.MustCompile(`([一二三四五六七八九十]+)月`)
)

// MonthQueries resolves the month reference in msg into YYYY-MM prefixes.
// An explicit YYYY-MM or YYYY/MM literal yields exactly one prefix. A bare
// month ("3月", "十一月") has no year, so it yields one prefix per year in
// years — the caller passes the distinct years of the user's history,
// newest first. With no reference at all, today's month is returned.
func MonthQueries(msg string, today time.Time, years []int) []string {
	if m := monthLitRe.FindStringSubmatch(msg); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			return []string{fmt.Sprintf("%04d-%02d", y, mo)}
		}
	}

	if mo, ok := bareMonth(msg); ok {
		if len(years) == 0 {
			years = []int{today.Year()}
		}
		out := make([]string, 0, len(years))
		for _, y := range years {
			out = append(out, fmt.Sprintf("%04d-%02d", y, mo))
		}
		return out
	}

	return []string{today.Format("2006-01")}
}

// HasMonthLiteral reports whether msg contains an explicit YYYY-MM (or
// YYYY/MM) reference with a plausible month.
func HasMonthLiteral(msg string) bool {
	m := monthLitRe.FindStringSubmatch(msg)
	if m == nil {
		return false
	}
	mo, _ := strconv.Atoi(m[2])
	return mo >= 1 && mo <= 12
}

// HasBareMonth reports whether msg contains a yearless month reference.
func HasBareMonth(msg string) bool {
	_, ok := bareMonth(msg)
	return ok
}

func bareMonth(msg string) (int, bool) {
	if m := bareMonthRe.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= 12 {
			return n, true
		}
	}
	if m := cjkMonthRe.FindStringSubmatch(msg); m != nil {
		if n, ok := cjkNumeral(m[1]); ok && n >= 1 && n <= 12 {
			return n, true
		}
	}
	return 0, false
}

var cjkDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// cjkNumeral reads a small Chinese numeral (1–12 is all the month grammar
// needs, including compound 十一 and 十二).
func cjkNumeral(s string) (int, bool) {
	if s == "十" {
		return 10, true
	}
	if rest, ok := strings.CutPrefix(s, "十"); ok {
		r := []rune(rest)
		if len(r) == 1 {
			if d, ok := cjkDigits[r[0]]; ok {
				return 10 + d, true
			}
		}
		return 0, false
	}
	r := []rune(s)
	if len(r) == 1 {
		if d, ok := cjkDigits[r[0]]; ok {
			return d, true
		}
	}
	return 0, false
}
