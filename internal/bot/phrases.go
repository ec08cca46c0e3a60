package bot

import (
	"math/rand"
	"sync"
)

// Reply phrase pools. Selection is randomized per call but never affects
// ledger state; tests inject a fixed source to pin the output.
var (
	expensePhrases = []string{
		"已記下來了喵，希望不是亂花錢 QQ",
		"好啦好啦，錢花了我也只能記下來了喵…",
		"唉，又是一筆支出呢…我都麻了喵 🫠",
		"收到喵～雖然我覺得可以不買但我嘴硬不說 🐱",
		"花得開心就好啦（吧），我會默默記著的喵～",
		"喵：記好了，不要到月底又說錢怎麼不見了嘿。",
	}

	incomePhrases = []string{
		"有錢進來了喵！今晚加罐罐嗎 🐟",
		"收入記好了喵～存起來不要亂花嘿！",
		"喵喔！錢包長胖了一點點，我有記下來～",
		"進帳喵～這筆我幫妳看得緊緊的 🐱",
	}

	over50Phrases = []string{
		"喵？已經花一半了耶…這樣月底還吃得起飯嗎…？",
		"再買下去我就要幫妳搶銀行了喵 🥲",
		"這速度…是存錢還是存破產紀錄呀喵～",
	}

	over80Phrases = []string{
		"錢真是難用啊喵，最後只能買個寂寞 🫠",
		"剩沒幾天啦喵…我們一起吃吐司皮撐過去吧 🍞",
		"看來只剩空氣和遺憾能當宵夜了喵…",
	}
)

// Composer picks reply phrases from the categorized pools. The random
// source is injected so tests can make the choice deterministic.
type Composer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewComposer(src rand.Source) *Composer {
	return &Composer{rnd: rand.New(src)}
}

func (c *Composer) pick(pool []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pool[c.rnd.Intn(len(pool))]
}

func (c *Composer) ExpensePhrase() string { return c.pick(expensePhrases) }
func (c *Composer) IncomePhrase() string  { return c.pick(incomePhrases) }
func (c *Composer) Over50Phrase() string  { return c.pick(over50Phrases) }
func (c *Composer) Over80Phrase() string  { return c.pick(over80Phrases) }
