package bot

import (
	"fmt"
	"strings"

	"ledgercat/internal/core"
)

// formatReport renders a monthly view the way the chat shows it: totals
// first, the budget line with its warning tier when one applies, then the
// numbered entry list users reference for deletion.
func (b *Bot) formatReport(v core.MonthlyView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s\n", v.MonthPrefix)
	fmt.Fprintf(&sb, "收入：%d 元\n", v.IncomeTotal)
	fmt.Fprintf(&sb, "支出：%d 元", v.ExpenseTotal)

	if v.HasBudget && v.Budget > 0 {
		percent := v.UsedPercent()
		fmt.Fprintf(&sb, "\n🎯 預算：%d 元（已使用 %d%%）", v.Budget, percent)
		switch {
		case percent >= 80:
			fmt.Fprintf(&sb, "\n⚠️ %s", b.composer.Over80Phrase())
		case percent >= 50:
			fmt.Fprintf(&sb, "\n😿 %s", b.composer.Over50Phrase())
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(formatEntryLines(v))
	return sb.String()
}

func formatEntryLines(v core.MonthlyView) string {
	if len(v.Entries) == 0 {
		return "（這個月還沒有紀錄喵）"
	}
	lines := make([]string, 0, len(v.Entries))
	for _, de := range v.Entries {
		e := de.Row.Entry
		sign := "-"
		if e.Kind == core.Income {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf("%d. %s｜%s｜%s%d", de.Index, e.Date, e.Item, sign, e.Amount))
	}
	return strings.Join(lines, "\n")
}

// formatRemaining renders the remaining-budget query. No budget at all is
// its own state, not a zero.
func (b *Bot) formatRemaining(v core.MonthlyView) string {
	if !v.HasBudget || v.Budget <= 0 {
		return "還沒設定這個月的預算喵～輸入「預算 20000」就可以設定囉！"
	}
	percent := v.UsedPercent()
	remaining := v.Remaining()
	remainingPercent := 100 - percent

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 本月預算 %d 元，已花 %d 元（%d%%）\n", v.Budget, v.ExpenseTotal, percent)
	fmt.Fprintf(&sb, "還剩 %d 元（%d%%）喵～", remaining, remainingPercent)
	switch {
	case percent >= 80:
		fmt.Fprintf(&sb, "\n⚠️ %s", b.composer.Over80Phrase())
	case percent >= 50:
		fmt.Fprintf(&sb, "\n😿 %s", b.composer.Over50Phrase())
	}
	return sb.String()
}
