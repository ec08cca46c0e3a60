package core

import "math"

type (
	// Row pairs an entry with its absolute 1-based position in the
	// underlying store. Adapters account for any header offset so that
	// Pos can be handed straight back to DeleteRow.
	Row struct {
		Pos   int64
		Entry LedgerEntry
	}

	// DisplayEntry is one line of a rendered report. Index is the
	// ephemeral 1-based number users reference for deletion; it is only
	// valid until the next store mutation.
	DisplayEntry struct {
		Index int
		Row   Row
	}

	// MonthlyView is the derived view of one owner's month. Budget is
	// the amount of the most recently inserted Budget row for the month
	// (later rows override, never sum); HasBudget distinguishes "no
	// budget configured" from a zero budget.
	MonthlyView struct {
		Owner        string
		MonthPrefix  string
		IncomeTotal  int64
		ExpenseTotal int64
		Budget       int64
		HasBudget    bool
		Entries      []DisplayEntry
	}
)

// BuildMonthlyView partitions rows into the month's budget and non-budget
// entries in a single pass. Display order is insertion order, not date
// order: an entry dated earlier but inserted later appears later.
func BuildMonthlyView(rows []Row, owner, monthPrefix string) MonthlyView {
	v := MonthlyView{Owner: owner, MonthPrefix: monthPrefix}
	for _, r := range rows {
		e := r.Entry
		if e.Owner != owner || len(e.Date) < len(monthPrefix) || e.Date[:len(monthPrefix)] != monthPrefix {
			continue
		}
		if e.Kind == Budget {
			v.Budget = e.Amount
			v.HasBudget = true
			continue
		}
		switch e.Kind {
		case Income:
			v.IncomeTotal += e.Amount
		case Expense:
			v.ExpenseTotal += e.Amount
		}
		v.Entries = append(v.Entries, DisplayEntry{Index: len(v.Entries) + 1, Row: r})
	}
	return v
}

// UsedPercent reports the share of the budget consumed, rounded to the
// nearest percent. Zero when no budget is configured.
func (v MonthlyView) UsedPercent() int {
	if !v.HasBudget || v.Budget <= 0 {
		return 0
	}
	return int(math.Round(float64(v.ExpenseTotal) / float64(v.Budget) * 100))
}

// Remaining is the budget left after this month's expenses. May be
// negative when the budget is overshot.
func (v MonthlyView) Remaining() int64 {
	return v.Budget - v.ExpenseTotal
}

// Years lists the distinct calendar years present in rows, newest first.
// Yearless month queries resolve against this set.
func Years(rows []Row) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range rows {
		y := r.Entry.Year()
		if y == 0 || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] > out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
