package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Income  Kind = "收入"
	Expense Kind = "支出"
	Budget  Kind = "預算"

	// DefaultItem labels entries whose text carried no item.
	DefaultItem = "懶得寫"
)

type (
	Kind string

	// LedgerEntry is one recorded financial fact. Entries are immutable
	// once written; the only mutation the store supports is whole-row
	// deletion.
	LedgerEntry struct {
		Date   string // YYYY-MM-DD
		Kind   Kind
		Item   string
		Amount int64 // always non-negative; Kind carries the sign
		Owner  string
	}
)

var (
	ErrNoAmount       = errors.New("no amount found")
	ErrInvalidDate    = errors.New("invalid date")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidKind    = errors.New("invalid entry kind")
	ErrEmptyOwner     = errors.New("empty owner")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense, Budget:
		return nil
	}
	return ErrInvalidKind
}

func (e LedgerEntry) Validate() error {
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return ErrInvalidDate
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(e.Owner) == "" {
		return ErrEmptyOwner
	}
	return nil
}

// FormatDate renders t as the stored date form.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthPrefix renders t as the YYYY-MM prefix used to filter entries.
func MonthPrefix(t time.Time) string {
	return t.Format("2006-01")
}

// Year extracts the calendar year from a stored date, 0 if unparseable.
func (e LedgerEntry) Year() int {
	if len(e.Date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(e.Date[:4])
	if err != nil {
		return 0
	}
	return y
}
