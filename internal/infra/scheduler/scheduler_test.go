//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type scriptedProber struct {
	mu      sync.Mutex
	results []bool
	calls   int
	err     error
}

func (p *scriptedProber) Probe(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if p.err != nil {
		return true, p.err
	}
	if i >= len(p.results) {
		return p.results[len(p.results)-1], nil
	}
	return p.results[i], nil
}

func TestScheduler_RunOnceReportsTransitions(t *testing.T) {
	log := zerolog.Nop()
	p := &scriptedProber{results: []bool{true, true, false, false, true}}
	var got []bool
	s := NewScheduler(time.Hour, p, func(up bool) { got = append(got, up) }, &log)

	for i := 0; i < 5; i++ {
		s.RunOnce(context.Background())
	}
	want := []bool{true, false, true}
	if len(got) != len(want) {
		t.Fatalf("wanted transitions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: wanted %v, got %v", i, want[i], got[i])
		}
	}
}

func TestScheduler_ProbeErrorMeansDown(t *testing.T) {
	log := zerolog.Nop()
	var got []bool
	s := NewScheduler(time.Hour, &scriptedProber{err: errors.New("boom")}, func(up bool) { got = append(got, up) }, &log)
	s.RunOnce(context.Background())
	if len(got) != 1 || got[0] {
		t.Errorf("expected a single down transition, got %v", got)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	log := zerolog.Nop()
	calls := make(chan struct{}, 10)
	p := ProberFunc(func(ctx context.Context) (bool, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return true, nil
	})
	s := NewScheduler(10*time.Millisecond, p, nil, &log)
	s.Start(context.Background())
	s.Start(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not probe")
		}
	}
	s.Stop()
	s.Stop()
}
