package bot

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"ledgercat/internal/core"
	"ledgercat/internal/ledger/memory"
)

func newTestBot(store *memory.Store) *Bot {
	return New(store,
		WithClock(func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }),
		WithRandom(rand.NewSource(1)),
	)
}

func send(t *testing.T, b *Bot, userID, text string) []string {
	t.Helper()
	replies := b.HandleMessage(context.Background(), userID, text)
	if len(replies) == 0 {
		t.Fatalf("HandleMessage(%q) returned no replies", text)
	}
	return replies
}

func TestExpenseFlow(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	replies := send(t, b, "u1", "支出")
	if replies[0] != promptExpense {
		t.Errorf("menu reply = %q, want expense prompt", replies[0])
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingExpense {
		t.Errorf("mode = %v, want awaiting-expense", got)
	}

	// Several entries in a row without re-entering the menu.
	replies = send(t, b, "u1", "午餐 120")
	if !strings.Contains(replies[0], "支出 午餐 120 元") {
		t.Errorf("append reply = %q, want confirmation with 午餐 120", replies[0])
	}
	send(t, b, "u1", "晚餐 80")
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingExpense {
		t.Errorf("mode after entries = %v, want awaiting-expense", got)
	}
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2", store.Len())
	}

	// Garbage while awaiting asks again, keeps the mode.
	replies = send(t, b, "u1", "嗯嗯")
	if replies[0] != replyDidNotUnderstand {
		t.Errorf("garbage reply = %q, want did-not-understand", replies[0])
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingExpense {
		t.Errorf("mode after garbage = %v, want awaiting-expense", got)
	}
}

func TestIncomeFlow(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "收入")
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingIncome {
		t.Fatalf("mode = %v, want awaiting-income", got)
	}

	// The awaiting kind wins even over a minus sign.
	replies := send(t, b, "u1", "加班費 -1500")
	if !strings.Contains(replies[0], "收入 加班費 1500 元") {
		t.Errorf("append reply = %q, want 收入 加班費 1500", replies[0])
	}
}

func TestOneShotEntries(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantKind   core.Kind
		wantItem   string
		wantAmount int64
	}{
		{"bare plus is income", "+200", core.Income, core.DefaultItem, 200},
		{"bare minus is expense", "-300", core.Expense, core.DefaultItem, 300},
		{"label with minus", "洗頭 -200", core.Expense, "洗頭", 200},
		{"expense keyword prefix", "支出 午餐 120", core.Expense, "午餐", 120},
		{"income keyword prefix", "收入 獎金 5000", core.Income, "獎金", 5000},
		{"amount before label", "300 午餐", core.Expense, "午餐", 300},
		{"keyword with amount only", "支出 120", core.Expense, core.DefaultItem, 120},
		{"dated entry", "3/10 電影 -280", core.Expense, "電影", 280},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			b := newTestBot(store)
			send(t, b, "u1", tt.text)

			rows, err := store.ScanAll(context.Background(), "u1")
			if err != nil {
				t.Fatalf("ScanAll() error = %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("stored rows = %d, want 1", len(rows))
			}
			e := rows[0].Entry
			if e.Kind != tt.wantKind || e.Item != tt.wantItem || e.Amount != tt.wantAmount {
				t.Errorf("stored entry = %v/%v/%v, want %v/%v/%v",
					e.Kind, e.Item, e.Amount, tt.wantKind, tt.wantItem, tt.wantAmount)
			}
		})
	}
}

func TestOneShotGluedEntry(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	replies := send(t, b, "u1", "洗頭300")
	if !strings.Contains(replies[0], "這應該是支出吧") {
		t.Errorf("glued entry reply = %q, want the assumed-expense reply", replies[0])
	}

	rows, _ := store.ScanAll(context.Background(), "u1")
	if len(rows) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(rows))
	}
	e := rows[0].Entry
	if e.Kind != core.Expense || e.Item != "洗頭" || e.Amount != 300 {
		t.Errorf("stored entry = %v/%v/%v, want 支出/洗頭/300", e.Kind, e.Item, e.Amount)
	}
}

func TestOneShotUnrecognized(t *testing.T) {
	// Unsigned text without a kind marker must not become a ledger row,
	// even when an amount could be extracted from it.
	for _, text := range []string{"哈囉你好", "午餐 120", "450", "3/10 電影 280"} {
		t.Run(text, func(t *testing.T) {
			store := memory.New()
			b := newTestBot(store)

			replies := send(t, b, "u1", text)
			if replies[0] != replyDidNotUnderstand {
				t.Errorf("reply = %q, want did-not-understand", replies[0])
			}
			if store.Len() != 0 {
				t.Errorf("store.Len() = %d, want 0", store.Len())
			}
		})
	}
}

func TestBudgetFlow(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	// Inline form skips the menu.
	replies := send(t, b, "u1", "預算 20000")
	if !strings.Contains(replies[0], "20000") {
		t.Errorf("inline budget reply = %q, want amount echoed", replies[0])
	}
	if got := b.Sessions().Mode("u1"); got != ModeIdle {
		t.Errorf("mode = %v, want idle", got)
	}

	// Menu form arms the awaiting mode, then a bare number completes it.
	send(t, b, "u1", "預算")
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingBudget {
		t.Fatalf("mode = %v, want awaiting-budget", got)
	}
	replies = send(t, b, "u1", "還沒想好")
	if !strings.Contains(replies[0], "直接輸入數字") {
		t.Errorf("non-numeric reply = %q, want guidance", replies[0])
	}
	send(t, b, "u1", "15000")
	if got := b.Sessions().Mode("u1"); got != ModeIdle {
		t.Errorf("mode after set = %v, want idle", got)
	}
}

func TestBudgetOverride(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "預算 300")
	send(t, b, "u1", "預算 500")
	send(t, b, "u1", "預算 400")

	replies := send(t, b, "u1", "查詢")
	if !strings.Contains(replies[0], "預算：400 元") {
		t.Errorf("report = %q, want latest budget 400", replies[0])
	}
	// Budget rows never appear in the numbered entry list.
	if strings.Contains(replies[0], "1.") {
		t.Errorf("report = %q, budget rows must not be numbered entries", replies[0])
	}
}

func TestWarningTiers(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "預算 1000")
	send(t, b, "u1", "買菜 -400")

	replies := send(t, b, "u1", "查詢")
	if strings.Contains(replies[0], "⚠️") || strings.Contains(replies[0], "😿") {
		t.Errorf("report at 40%% = %q, want no warning", replies[0])
	}
	if !strings.Contains(replies[0], "已使用 40%") {
		t.Errorf("report = %q, want 40%% usage", replies[0])
	}

	send(t, b, "u1", "聚餐 -200")
	replies = send(t, b, "u1", "查詢")
	if !strings.Contains(replies[0], "😿") || strings.Contains(replies[0], "⚠️") {
		t.Errorf("report at 60%% = %q, want the 50%% tier only", replies[0])
	}

	send(t, b, "u1", "治裝 -300")
	replies = send(t, b, "u1", "查詢")
	if !strings.Contains(replies[0], "⚠️") || strings.Contains(replies[0], "😿") {
		t.Errorf("report at 90%% = %q, want the 80%% tier only", replies[0])
	}
}

func TestRemainingQuery(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	replies := send(t, b, "u1", "剩餘")
	if !strings.Contains(replies[0], "還沒設定這個月的預算") {
		t.Errorf("reply without budget = %q, want guidance", replies[0])
	}

	send(t, b, "u1", "預算 1000")
	send(t, b, "u1", "午餐 -250")
	replies = send(t, b, "u1", "剩多少")
	if !strings.Contains(replies[0], "還剩 750 元") {
		t.Errorf("reply = %q, want remaining 750", replies[0])
	}
}

func TestDeletionFlow(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "早餐 -50")
	send(t, b, "u1", "午餐 -120")
	send(t, b, "u1", "晚餐 -200")

	replies := send(t, b, "u1", "刪除")
	if len(replies) != 2 {
		t.Fatalf("enter deletion replies = %d, want report + prompt", len(replies))
	}
	if replies[1] != promptDeletion {
		t.Errorf("second reply = %q, want deletion prompt", replies[1])
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingDeletion {
		t.Fatalf("mode = %v, want awaiting-deletion", got)
	}

	replies = send(t, b, "u1", "1 3")
	if !strings.Contains(replies[0], "第 1, 3 筆") {
		t.Errorf("deletion reply = %q, want indices 1, 3", replies[0])
	}
	if store.Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", store.Len())
	}

	// The survivor renumbers to 1 on the next view.
	replies = send(t, b, "u1", "查詢")
	if !strings.Contains(replies[0], "1. 2024-03-15｜午餐｜-120") {
		t.Errorf("report = %q, want 午餐 renumbered to 1", replies[0])
	}
}

func TestDeletionOutOfRange(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "早餐 -50")
	send(t, b, "u1", "刪除")

	// Out-of-range indices drop silently; the valid one still deletes.
	replies := send(t, b, "u1", "1 99")
	if !strings.Contains(replies[0], "第 1 筆") {
		t.Errorf("deletion reply = %q, want index 1 only", replies[0])
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}

	// Nothing valid at all is its own reply, and the mode survives.
	replies = send(t, b, "u1", "99")
	if replies[0] != replyNoSuchIndices {
		t.Errorf("reply = %q, want no-such-indices", replies[0])
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingDeletion {
		t.Errorf("mode = %v, want awaiting-deletion", got)
	}
}

func TestDeleteAll(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "預算 1000")
	send(t, b, "u1", "早餐 -50")
	send(t, b, "u1", "午餐 -120")

	replies := send(t, b, "u1", "刪除 全部")
	if !strings.Contains(replies[0], "2 筆紀錄都清掉了") {
		t.Errorf("delete-all reply = %q, want 2 entries cleared", replies[0])
	}
	if got := b.Sessions().Mode("u1"); got != ModeIdle {
		t.Errorf("mode = %v, want idle", got)
	}
	// The budget row survives a delete-all.
	replies = send(t, b, "u1", "查詢")
	if !strings.Contains(replies[0], "預算：1000 元") {
		t.Errorf("report = %q, want budget preserved", replies[0])
	}

	// Deleting an already-empty month is a friendly no-op.
	replies = send(t, b, "u1", "刪除 全部")
	if replies[0] != replyNothingToDelete {
		t.Errorf("empty delete-all reply = %q, want nothing-to-delete", replies[0])
	}
}

func TestQueryDuringDeletionKeepsMode(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "早餐 -50")
	send(t, b, "u1", "刪除")

	replies := send(t, b, "u1", "查詢")
	if got := replies[len(replies)-1]; got != promptDeletion {
		t.Errorf("last reply = %q, want deletion prompt re-shown", got)
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingDeletion {
		t.Errorf("mode = %v, want awaiting-deletion", got)
	}
}

func TestMonthLiteralDuringDeletionShowsNotDeletes(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "早餐 -50")
	send(t, b, "u1", "午餐 -120")
	send(t, b, "u1", "晚餐 -200")
	send(t, b, "u1", "刪除")

	// The digits in a dated month reference are not deletion indices.
	replies := send(t, b, "u1", "2024-03")
	if !strings.Contains(replies[0], "2024-03") {
		t.Errorf("first reply = %q, want the 2024-03 view", replies[0])
	}
	if got := replies[len(replies)-1]; got != promptDeletion {
		t.Errorf("last reply = %q, want deletion prompt re-shown", got)
	}
	if store.Len() != 3 {
		t.Errorf("store.Len() = %d, want 3 (nothing deleted)", store.Len())
	}
	if got := b.Sessions().Mode("u1"); got != ModeAwaitingDeletion {
		t.Errorf("mode = %v, want awaiting-deletion", got)
	}
}

func TestYearlessMonthFanOut(t *testing.T) {
	store := memory.New()
	store.Seed(
		core.LedgerEntry{Date: "2023-03-10", Kind: core.Expense, Item: "舊帳", Amount: 100, Owner: "u1"},
		core.LedgerEntry{Date: "2024-03-10", Kind: core.Expense, Item: "新帳", Amount: 200, Owner: "u1"},
	)
	b := newTestBot(store)

	replies := send(t, b, "u1", "3月")
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want one view per history year", len(replies))
	}
	if !strings.Contains(replies[0], "2024-03") || !strings.Contains(replies[0], "新帳") {
		t.Errorf("first reply = %q, want the newest year first", replies[0])
	}
	if !strings.Contains(replies[1], "2023-03") || !strings.Contains(replies[1], "舊帳") {
		t.Errorf("second reply = %q, want the older year second", replies[1])
	}
}

func TestYearlessFanOutCapped(t *testing.T) {
	store := memory.New()
	store.Seed(
		core.LedgerEntry{Date: "2019-03-01", Kind: core.Expense, Item: "a", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2020-03-01", Kind: core.Expense, Item: "b", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2021-03-01", Kind: core.Expense, Item: "c", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2022-03-01", Kind: core.Expense, Item: "d", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2023-03-01", Kind: core.Expense, Item: "e", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2024-03-01", Kind: core.Expense, Item: "f", Amount: 1, Owner: "u1"},
	)
	b := newTestBot(store)

	// A long history keeps only the newest views, so the re-shown
	// deletion prompt still fits in one send of at most five messages.
	send(t, b, "u1", "刪除")
	replies := send(t, b, "u1", "3月")
	if len(replies) != maxMonthReports+1 {
		t.Fatalf("replies = %d, want %d views + prompt", len(replies), maxMonthReports)
	}
	if !strings.Contains(replies[0], "2024-03") {
		t.Errorf("first reply = %q, want the newest year first", replies[0])
	}
	if !strings.Contains(replies[maxMonthReports-1], "2021-03") {
		t.Errorf("last view = %q, want 2021-03 (older years dropped)", replies[maxMonthReports-1])
	}
	if got := replies[len(replies)-1]; got != promptDeletion {
		t.Errorf("last reply = %q, want deletion prompt", got)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "支出")
	send(t, b, "u1", "午餐 120")
	send(t, b, "u2", "晚餐 -80")

	if got := b.Sessions().Mode("u2"); got != ModeIdle {
		t.Errorf("u2 mode = %v, want idle", got)
	}

	replies := send(t, b, "u2", "查詢")
	if strings.Contains(replies[0], "午餐") {
		t.Errorf("u2 report = %q, must not contain u1's entries", replies[0])
	}
	if !strings.Contains(replies[0], "晚餐") {
		t.Errorf("u2 report = %q, want u2's own entry", replies[0])
	}
}

func TestDisplayNumberingAfterDeletion(t *testing.T) {
	store := memory.New()
	b := newTestBot(store)

	send(t, b, "u1", "一 -10")
	send(t, b, "u1", "二 -20")
	send(t, b, "u1", "三 -30")
	send(t, b, "u1", "刪除")
	send(t, b, "u1", "2")

	// Indices resolve against a fresh snapshot: former entry 3 is now 2.
	replies := send(t, b, "u1", "2")
	if !strings.Contains(replies[0], "第 2 筆") {
		t.Fatalf("reply = %q, want deletion of renumbered index 2", replies[0])
	}

	rows, _ := store.ScanAll(context.Background(), "u1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Entry.Item != "一" {
		t.Errorf("surviving entry = %q, want 一", rows[0].Entry.Item)
	}
}
