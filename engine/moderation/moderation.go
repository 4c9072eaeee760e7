package moderation

import (
	"strings"
	"sync"

	trie_tst "github.com/xiaonanln/go-trie-tst"
	"github.com/xnitro1/MMONewTest-sub013/engine/async"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
)

// Result is the outcome of one moderation check; Message is the original
// text with banned words censored
type Result struct {
	Message          string
	ShouldMutePlayer bool
	ShouldKickPlayer bool
	MuteMinutes      int
}

// Checker checks one chat message; implementations may be slow (remote
// providers), so callers go through the Dispatcher instead of calling
// Check on their own goroutine
type Checker interface {
	Check(text string) Result
}

type bannedWord struct {
	word string
	kick bool
}

// WordListChecker finds banned words as substrings of the message, case
// insensitively, using a ternary search trie
type WordListChecker struct {
	lock        sync.Mutex // Sub mutates the trie, even on lookups
	tree        trie_tst.TST
	maxWordLen  int
	muteMinutes int
}

// NewWordListChecker creates a checker from the moderation config
func NewWordListChecker(cfg *config.ModerationConfig) *WordListChecker {
	c := &WordListChecker{
		muteMinutes: cfg.MuteMinutes,
	}
	for _, w := range cfg.MuteWords {
		c.AddWord(w, false)
	}
	for _, w := range cfg.KickWords {
		c.AddWord(w, true)
	}
	return c
}

// AddWord adds one banned word; kick words disconnect the sender instead
// of just muting
func (c *WordListChecker) AddWord(word string, kick bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	t := c.tree.Sub(word)
	if t.Val == nil {
		t.Val = &bannedWord{word: word, kick: kick}
	} else if kick {
		t.Val.(*bannedWord).kick = true
	}
	if len(word) > c.maxWordLen {
		c.maxWordLen = len(word)
	}
}

// Check scans the message for banned words
func (c *WordListChecker) Check(text string) Result {
	res := Result{Message: text}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.maxWordLen == 0 {
		return res
	}

	lower := strings.ToLower(text)
	censored := []byte(text)
	for i := 0; i < len(lower); i++ {
		maxEnd := i + c.maxWordLen
		if maxEnd > len(lower) {
			maxEnd = len(lower)
		}
		for end := i + 1; end <= maxEnd; end++ {
			t := c.tree.Sub(lower[i:end])
			if t.Val == nil {
				continue
			}
			banned := t.Val.(*bannedWord)
			for j := i; j < end; j++ {
				censored[j] = '*'
			}
			res.ShouldMutePlayer = true
			res.MuteMinutes = c.muteMinutes
			if banned.kick {
				res.ShouldKickPlayer = true
			}
		}
	}

	res.Message = string(censored)
	return res
}

// Dispatcher runs moderation checks off the session goroutines; checks of
// one session run and apply strictly in submission order, and results for
// cancelled sessions are discarded
type Dispatcher struct {
	checker Checker

	lock     sync.Mutex
	sessions map[string]*sessionChecks
}

type sessionChecks struct {
	gen     int
	pending int
}

// NewDispatcher creates a Dispatcher over the checker
func NewDispatcher(checker Checker) *Dispatcher {
	return &Dispatcher{
		checker:  checker,
		sessions: map[string]*sessionChecks{},
	}
}

// Submit queues one moderation check; apply runs in the service main
// routine when the result arrives, unless the session was cancelled in
// the meantime
func (d *Dispatcher) Submit(sessionKey string, text string, apply func(Result)) {
	d.lock.Lock()
	sc := d.sessions[sessionKey]
	if sc == nil {
		sc = &sessionChecks{}
		d.sessions[sessionKey] = sc
	}
	sc.pending++
	gen := sc.gen
	d.lock.Unlock()

	async.AppendAsyncJob("moderation/"+sessionKey, func() (interface{}, error) {
		return d.checker.Check(text), nil
	}, func(res interface{}, err error) {
		d.lock.Lock()
		sc.pending--
		stale := sc.gen != gen
		if sc.pending == 0 {
			// no outstanding checks left, bookkeeping can go
			delete(d.sessions, sessionKey)
		}
		d.lock.Unlock()

		if err != nil {
			mnlog.Errorf("moderation check failed: %s", err)
			return
		}
		if stale {
			// session closed while the check was outstanding
			mnlog.Debugf("moderation: discarding result for cancelled session %s", sessionKey)
			return
		}
		apply(res.(Result))
	})
}

// Cancel discards all outstanding results of the session; called when the
// session closes
func (d *Dispatcher) Cancel(sessionKey string) {
	d.lock.Lock()
	if sc := d.sessions[sessionKey]; sc != nil {
		sc.gen++
	}
	d.lock.Unlock()
}
