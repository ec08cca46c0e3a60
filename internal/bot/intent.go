package bot

import (
	"log/slog"
	"regexp"
	"strings"

	"ledgercat/internal/parse"
)

type command int

const (
	cmdNone command = iota
	cmdQueryReport
	cmdQueryRemaining
	cmdDeleteAll
	cmdDeleteEntries
	cmdMenuDelete
	cmdSetBudget
	cmdMenuBudget
	cmdMenuExpense
	cmdMenuIncome
	cmdQueryMonth
)

// match is the typed result of one matcher: the command plus whatever
// fields it extracted from the text.
type match struct {
	cmd     command
	amount  int64 // cmdSetBudget
	indices []int // cmdDeleteEntries
}

type matcher struct {
	name string
	fn   func(text string) (match, bool)
}

var (
	queryRe        = regexp.MustCompile(`查詢|明細|帳目|看一下`)
	remainingRe    = regexp.MustCompile(`剩餘|剩多少`)
	inlineBudgetRe = regexp.MustCompile(`預算\s*(\d+)`)
)

// matchers is the declared priority list. Evaluation stops at the first
// match, so earlier entries win over later ones; the order is part of the
// command grammar and is tested in isolation from the state machine.
var matchers = []matcher{
	{"query-report", func(t string) (match, bool) {
		return match{cmd: cmdQueryReport}, queryRe.MatchString(t)
	}},
	{"query-remaining", func(t string) (match, bool) {
		return match{cmd: cmdQueryRemaining}, remainingRe.MatchString(t)
	}},
	{"delete-all", func(t string) (match, bool) {
		return match{cmd: cmdDeleteAll}, strings.HasPrefix(t, "刪除") && strings.Contains(t, "全部")
	}},
	{"delete-entries", func(t string) (match, bool) {
		if !strings.HasPrefix(t, "刪除") {
			return match{}, false
		}
		nums := parse.Integers(t)
		return match{cmd: cmdDeleteEntries, indices: nums}, len(nums) > 0
	}},
	{"menu-delete", func(t string) (match, bool) {
		return match{cmd: cmdMenuDelete}, t == "刪除" || t == "修改" || t == "刪除/修改"
	}},
	{"set-budget", func(t string) (match, bool) {
		m := inlineBudgetRe.FindStringSubmatch(t)
		if m == nil {
			return match{}, false
		}
		n, ok := parse.Integer(m[1])
		return match{cmd: cmdSetBudget, amount: n}, ok
	}},
	{"menu-budget", func(t string) (match, bool) {
		return match{cmd: cmdMenuBudget}, strings.Contains(t, "預算")
	}},
	{"menu-expense", func(t string) (match, bool) {
		return match{cmd: cmdMenuExpense}, t == "支出"
	}},
	{"menu-income", func(t string) (match, bool) {
		return match{cmd: cmdMenuIncome}, t == "收入"
	}},
	{"query-month", func(t string) (match, bool) {
		return match{cmd: cmdQueryMonth}, parse.HasBareMonth(t)
	}},
}

// classify runs the priority list over the trimmed text.
func classify(text string) match {
	text = strings.TrimSpace(text)
	for _, m := range matchers {
		if got, ok := m.fn(text); ok {
			slog.Debug("message classified", "matcher", m.name)
			return got
		}
	}
	return match{cmd: cmdNone}
}
