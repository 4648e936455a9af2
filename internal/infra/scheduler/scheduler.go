package scheduler

import (
	"context"
	"sync"
	"time"

	"rag-chat-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Prober reports whether the backend is reachable.
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (bool, error)

func (f ProberFunc) Probe(ctx context.Context) (bool, error) { return f(ctx) }

// Scheduler periodically probes the backend and reports up/down transitions.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	prober   Prober
	onChange func(up bool)
	log      *zerolog.Logger

	mu     sync.Mutex
	known  bool
	up     bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler probes every interval. If interval <= 0 it defaults to 1 minute.
// onChange may be nil; it runs on the scheduler goroutine.
func NewScheduler(interval time.Duration, prober Prober, onChange func(up bool), logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "HealthScheduler").Logger()
	return &Scheduler{
		interval: interval,
		timeout:  10 * time.Second,
		prober:   prober,
		onChange: onChange,
		log:      &l,
	}
}

// Start begins the loop in a background goroutine. Calling Start multiple
// times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("started")
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("context cancelled; stopping")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce probes with a bounded timeout and fires onChange on transitions,
// including the first result.
func (s *Scheduler) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	up, err := s.prober.Probe(runCtx)
	if err != nil {
		s.log.Warn().Err(err).Msg("probe error")
		up = false
	}
	metrics.SetBackendUp(up)

	s.mu.Lock()
	changed := !s.known || s.up != up
	s.known, s.up = true, up
	s.mu.Unlock()

	if !changed {
		return
	}
	s.log.Info().Bool("up", up).Msg("backend state changed")
	if s.onChange != nil {
		s.onChange(up)
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info().Msg("stopped")
}
