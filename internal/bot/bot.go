// Package bot turns inbound chat text into ledger mutations and replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ledgercat/internal/core"
	"ledgercat/internal/ledger"
	"ledgercat/internal/parse"
)

const (
	replyDidNotUnderstand = "喵？這筆我看不懂，要不要再試一次～"
	replyStoreFailure     = "喵嗚…帳本暫時打不開，等一下再試一次好嗎？"
	replyNoSuchIndices    = "找不到這些筆數喵，請再確認一下～"
	replyNothingToDelete  = "這個月本來就沒有紀錄喵，不用刪～"

	promptExpense  = "要記支出喵～輸入「項目 金額」就好，例如「午餐 120」，可以連續記好幾筆喔！"
	promptIncome   = "要記收入喵～輸入「項目 金額」，例如「加班費 1500」～"
	promptBudget   = "要設定這個月的預算嗎喵？直接輸入數字就好，例如 20000～"
	promptDeletion = "想刪哪幾筆呢喵？輸入編號（例如：1 3），或輸入「全部」把整個月清掉～"
)

// maxMonthReports bounds a yearless fan-out. The reply transport carries
// at most five messages, and one slot must stay free for the deletion
// prompt when it is re-shown.
const maxMonthReports = 4

// EventSink receives ledger mutation notifications. Publishing is
// best-effort: a sink failure never fails the user's command.
type EventSink interface {
	EntryAppended(ctx context.Context, e core.LedgerEntry)
	EntryDeleted(ctx context.Context, e core.LedgerEntry)
}

// Bot is the conversation engine: classifier, per-user state machine,
// aggregation and deletion against the row store, reply composition.
type Bot struct {
	store    ledger.RowStore
	sessions *SessionStore
	composer *Composer
	events   EventSink
	now      func() time.Time
}

type Option func(*Bot)

// WithClock overrides the "today" source.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithRandom overrides the phrase-selection random source.
func WithRandom(src rand.Source) Option {
	return func(b *Bot) { b.composer = NewComposer(src) }
}

// WithEvents attaches a mutation event sink.
func WithEvents(sink EventSink) Option {
	return func(b *Bot) { b.events = sink }
}

func New(store ledger.RowStore, opts ...Option) *Bot {
	b := &Bot{
		store:    store,
		sessions: NewSessionStore(),
		composer: NewComposer(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Sessions exposes the session store for inspection in tests.
func (b *Bot) Sessions() *SessionStore { return b.sessions }

// HandleMessage processes one inbound message and returns the reply
// units. It never panics and never returns zero replies: every error
// path ends in exactly one composed reply. Handling locks the user's
// session for the duration, serializing same-user messages.
func (b *Bot) HandleMessage(ctx context.Context, userID, text string) []string {
	text = strings.TrimSpace(text)
	sess := b.sessions.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	today := b.now()
	m := classify(text)

	switch m.cmd {
	case cmdQueryReport, cmdQueryMonth:
		return b.handleQuery(ctx, sess, userID, text, today)
	case cmdQueryRemaining:
		return b.handleRemaining(ctx, userID, today)
	case cmdMenuExpense:
		sess.mode = ModeAwaitingExpense
		return []string{promptExpense}
	case cmdMenuIncome:
		sess.mode = ModeAwaitingIncome
		return []string{promptIncome}
	case cmdSetBudget:
		return b.setBudget(ctx, sess, userID, m.amount, today)
	case cmdMenuBudget:
		sess.mode = ModeAwaitingBudget
		return []string{promptBudget}
	case cmdMenuDelete:
		return b.enterDeletion(ctx, sess, userID, today)
	case cmdDeleteAll:
		return b.deleteAll(ctx, sess, userID, core.MonthPrefix(today))
	case cmdDeleteEntries:
		return b.deleteIndices(ctx, userID, core.MonthPrefix(today), m.indices)
	}

	// No command matched: the pending mode decides what the text means.
	switch sess.mode {
	case ModeAwaitingExpense:
		return b.appendFromText(ctx, userID, text, today, core.Expense)
	case ModeAwaitingIncome:
		return b.appendFromText(ctx, userID, text, today, core.Income)
	case ModeAwaitingBudget:
		n, ok := parse.Integer(text)
		if !ok {
			return []string{"直接輸入數字就好喵，例如 20000～"}
		}
		return b.setBudget(ctx, sess, userID, n, today)
	case ModeAwaitingDeletion:
		if strings.Contains(text, "全部") {
			return b.deleteAll(ctx, sess, userID, core.MonthPrefix(today))
		}
		// A dated month reference is a view request, not index digits.
		if parse.HasMonthLiteral(text) {
			return b.handleQuery(ctx, sess, userID, text, today)
		}
		if nums := parse.Integers(text); len(nums) > 0 {
			return b.deleteIndices(ctx, userID, core.MonthPrefix(today), nums)
		}
		return []string{replyDidNotUnderstand}
	}

	return b.oneShotEntry(ctx, userID, text, today)
}

// handleQuery renders one monthly view per resolved month prefix. A
// yearless month reference fans out over the years in the user's
// history, newest first, capped so the replies fit one send. Queries
// never change the pending mode; while awaiting deletion they re-show
// entries but never delete.
func (b *Bot) handleQuery(ctx context.Context, sess *Session, userID, text string, today time.Time) []string {
	rows, err := b.store.ScanAll(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "scan failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}

	prefixes := parse.MonthQueries(text, today, core.Years(rows))
	if len(prefixes) > maxMonthReports {
		prefixes = prefixes[:maxMonthReports]
	}
	replies := make([]string, 0, len(prefixes)+1)
	for _, prefix := range prefixes {
		replies = append(replies, b.formatReport(core.BuildMonthlyView(rows, userID, prefix)))
	}
	if sess.mode == ModeAwaitingDeletion {
		replies = append(replies, promptDeletion)
	}
	return replies
}

func (b *Bot) handleRemaining(ctx context.Context, userID string, today time.Time) []string {
	rows, err := b.store.ScanAll(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "scan failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	v := core.BuildMonthlyView(rows, userID, core.MonthPrefix(today))
	return []string{b.formatRemaining(v)}
}

func (b *Bot) setBudget(ctx context.Context, sess *Session, userID string, amount int64, today time.Time) []string {
	e := core.LedgerEntry{
		Date:   core.FormatDate(today),
		Kind:   core.Budget,
		Item:   "本月預算",
		Amount: amount,
		Owner:  userID,
	}
	if err := b.store.Append(ctx, e); err != nil {
		slog.ErrorContext(ctx, "budget append failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	b.notifyAppended(ctx, e)
	sess.mode = ModeIdle
	return []string{fmt.Sprintf("喵～我幫妳把這個月的預算記成 %d 元了！", amount)}
}

// enterDeletion shows the current month as deletion context and arms the
// deletion mode.
func (b *Bot) enterDeletion(ctx context.Context, sess *Session, userID string, today time.Time) []string {
	rows, err := b.store.ScanAll(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "scan failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	v := core.BuildMonthlyView(rows, userID, core.MonthPrefix(today))
	sess.mode = ModeAwaitingDeletion
	return []string{b.formatReport(v), promptDeletion}
}

// deleteIndices resolves the typed display indices against a fresh
// snapshot of the current month and executes the surviving deletions in
// descending absolute order. Out-of-range indices are dropped silently;
// the mode is left as-is so the user can delete in several passes.
func (b *Bot) deleteIndices(ctx context.Context, userID, monthPrefix string, indices []int) []string {
	rows, err := b.store.ScanAll(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "scan failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	v := core.BuildMonthlyView(rows, userID, monthPrefix)

	targets, resolved := resolveDeletions(v, indices)
	if len(targets) == 0 {
		return []string{replyNoSuchIndices}
	}
	if err := b.executeDeletions(ctx, targets); err != nil {
		slog.ErrorContext(ctx, "deletion failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}

	labels := make([]string, len(resolved))
	for i, n := range resolved {
		labels[i] = strconv.Itoa(n)
	}
	return []string{fmt.Sprintf("我幫妳刪掉第 %s 筆紀錄了喵～", strings.Join(labels, ", "))}
}

// deleteAll clears every non-budget row of the month and returns to
// idle. Budget rows survive; an already-empty month is a no-op with its
// own reply.
func (b *Bot) deleteAll(ctx context.Context, sess *Session, userID, monthPrefix string) []string {
	rows, err := b.store.ScanAll(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "scan failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	v := core.BuildMonthlyView(rows, userID, monthPrefix)
	sess.mode = ModeIdle

	targets := allDeletionTargets(v)
	if len(targets) == 0 {
		return []string{replyNothingToDelete}
	}
	if err := b.executeDeletions(ctx, targets); err != nil {
		slog.ErrorContext(ctx, "delete-all failed", "user", userID, "error", err)
		return []string{replyStoreFailure}
	}
	return []string{fmt.Sprintf("這個月的 %d 筆紀錄都清掉了喵～", len(targets))}
}

func (b *Bot) executeDeletions(ctx context.Context, targets []core.Row) error {
	for _, r := range targets {
		if err := b.store.DeleteRow(ctx, r.Pos); err != nil {
			return fmt.Errorf("delete row %d: %w", r.Pos, err)
		}
		b.notifyDeleted(ctx, r.Entry)
	}
	return nil
}

// appendFromText records one entry while awaiting a specific kind. The
// awaiting kind wins over any sign in the text, and the mode is kept so
// several entries can be recorded in a row.
func (b *Bot) appendFromText(ctx context.Context, userID, text string, today time.Time, kind core.Kind) []string {
	c, err := parse.Extract(text, today)
	if err != nil {
		return []string{replyDidNotUnderstand}
	}
	return b.appendEntry(ctx, core.LedgerEntry{
		Date:   c.Date,
		Kind:   kind,
		Item:   c.Item,
		Amount: c.Amount,
		Owner:  userID,
	})
}

var (
	gluedEntryRe  = regexp.MustCompile(`^([^\d\s+-]+)(\d+)$`)
	signedEntryRe = regexp.MustCompile(`^([^\d\s+-]+\s*)?([+-]\d+)$`)
	digitFirstRe  = regexp.MustCompile(`^(\d+)\s+([^\d\s+-]+)$`)
)

// oneShotEntry is the idle-state fallback. Only the unmistakable direct
// entry forms are recorded: sign-prefixed ("+200", "洗頭 -200"), glued
// ("洗頭300", assumed expense with its own reply), keyword-prefixed
// ("支出 午餐 120") and digit-first ("300 午餐"), each with an optional
// date literal anywhere in the text. Everything else gets the
// did-not-understand reply and stores nothing: unsigned idle text is
// too ambiguous to turn into a ledger row on a guess.
func (b *Bot) oneShotEntry(ctx context.Context, userID, text string, today time.Time) []string {
	date, rest := parse.SplitDate(text, today)

	if fields := strings.Fields(rest); len(fields) > 1 {
		kind := core.Kind("")
		switch fields[0] {
		case "支出":
			kind = core.Expense
		case "收入":
			kind = core.Income
		}
		// The keyword states the intent, so the remainder gets the same
		// liberal extraction as an awaiting mode.
		if kind != "" {
			c, err := parse.Extract(strings.Join(fields[1:], " "), today)
			if err != nil {
				return []string{replyDidNotUnderstand}
			}
			return b.appendEntry(ctx, core.LedgerEntry{
				Date:   date,
				Kind:   kind,
				Item:   c.Item,
				Amount: c.Amount,
				Owner:  userID,
			})
		}
	}

	if m := gluedEntryRe.FindStringSubmatch(rest); m != nil {
		if amount, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			e := core.LedgerEntry{
				Date:   date,
				Kind:   core.Expense,
				Item:   m[1],
				Amount: amount,
				Owner:  userID,
			}
			if err := b.store.Append(ctx, e); err != nil {
				slog.ErrorContext(ctx, "append failed", "user", userID, "error", err)
				return []string{replyStoreFailure}
			}
			b.notifyAppended(ctx, e)
			return []string{fmt.Sprintf("這應該是支出吧？如果是收入再請輸入收入兩個字我就知道囉！\n我先幫妳記下來囉：%s -%d 元", e.Item, e.Amount)}
		}
	}

	if m := signedEntryRe.FindStringSubmatch(rest); m != nil {
		if amount, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			kind := core.Expense
			if amount > 0 {
				kind = core.Income
			} else {
				amount = -amount
			}
			item := strings.TrimSpace(m[1])
			if item == "" {
				item = core.DefaultItem
			}
			return b.appendEntry(ctx, core.LedgerEntry{
				Date:   date,
				Kind:   kind,
				Item:   item,
				Amount: amount,
				Owner:  userID,
			})
		}
	}

	if m := digitFirstRe.FindStringSubmatch(rest); m != nil {
		if amount, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return b.appendEntry(ctx, core.LedgerEntry{
				Date:   date,
				Kind:   core.Expense,
				Item:   m[2],
				Amount: amount,
				Owner:  userID,
			})
		}
	}

	return []string{replyDidNotUnderstand}
}

func (b *Bot) appendEntry(ctx context.Context, e core.LedgerEntry) []string {
	if err := b.store.Append(ctx, e); err != nil {
		slog.ErrorContext(ctx, "append failed", "user", e.Owner, "error", err)
		return []string{replyStoreFailure}
	}
	b.notifyAppended(ctx, e)

	phrase := b.composer.ExpensePhrase()
	if e.Kind == core.Income {
		phrase = b.composer.IncomePhrase()
	}
	return []string{fmt.Sprintf("%s：%s %s %d 元", phrase, e.Kind, e.Item, e.Amount)}
}

func (b *Bot) notifyAppended(ctx context.Context, e core.LedgerEntry) {
	if b.events != nil {
		b.events.EntryAppended(ctx, e)
	}
}

func (b *Bot) notifyDeleted(ctx context.Context, e core.LedgerEntry) {
	if b.events != nil {
		b.events.EntryDeleted(ctx, e)
	}
}
