package view

import (
	"sync"
	"time"

	"rag-chat-client/internal/infra/metrics"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Status is a transient banner line.
type Status struct {
	Text string
	Kind Kind
}

// afterFunc schedules f and returns a func that cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfter(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// StatusBanner holds at most one status. A new status replaces the old one and
// each status dismisses itself after ttl.
type StatusBanner struct {
	mu       sync.Mutex
	current  *Status
	gen      uint64
	stop     func() bool
	ttl      time.Duration
	after    afterFunc
	onChange func()
}

func NewStatusBanner(ttl time.Duration) *StatusBanner {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &StatusBanner{ttl: ttl, after: timeAfter}
}

// OnChange sets the callback run after a status is shown or dismissed.
// It runs without the banner lock held.
func (b *StatusBanner) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *StatusBanner) Show(text string, kind Kind) {
	b.mu.Lock()
	if b.stop != nil {
		b.stop()
	}
	b.gen++
	gen := b.gen
	b.current = &Status{Text: text, Kind: kind}
	b.stop = b.after(b.ttl, func() { b.expire(gen) })
	cb := b.onChange
	b.mu.Unlock()

	metrics.IncStatusShown(string(kind))
	if cb != nil {
		cb()
	}
}

// Current returns the visible status, if any.
func (b *StatusBanner) Current() (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Status{}, false
	}
	return *b.current, true
}

func (b *StatusBanner) Dismiss() {
	b.mu.Lock()
	if b.stop != nil {
		b.stop()
		b.stop = nil
	}
	had := b.current != nil
	b.current = nil
	cb := b.onChange
	b.mu.Unlock()
	if had && cb != nil {
		cb()
	}
}

// expire clears the banner only if it still shows the status numbered gen.
func (b *StatusBanner) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.current == nil {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.stop = nil
	cb := b.onChange
	b.mu.Unlock()
	if cb != nil {
		cb()
	}
}
