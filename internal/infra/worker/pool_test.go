//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPool(t *testing.T) {
	log := zerolog.Nop()

	t.Run("runs tasks in submission order with one worker", func(t *testing.T) {
		p := NewPool(1, &log)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)
		defer p.Stop()

		var mu sync.Mutex
		var got []int
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			i := i
			wg.Add(1)
			if err := p.Submit(func(context.Context) error {
				defer wg.Done()
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
				return nil
			}); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		wg.Wait()
		if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
			t.Errorf("unexpected order %v", got)
		}
	})

	t.Run("nil task is rejected", func(t *testing.T) {
		p := NewPool(1, &log)
		if err := p.Submit(nil); !errors.Is(err, ErrNilTask) {
			t.Errorf("wanted ErrNilTask, got %v", err)
		}
	})

	t.Run("queue full", func(t *testing.T) {
		p := NewPool(1, &log) // not started, capacity 4
		for i := 0; i < 4; i++ {
			if err := p.Submit(func(context.Context) error { return nil }); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
			t.Errorf("wanted ErrQueueFull, got %v", err)
		}
	})

	t.Run("panic does not kill the worker", func(t *testing.T) {
		p := NewPool(1, &log)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)
		defer p.Stop()

		_ = p.Submit(func(context.Context) error { panic("boom") })
		done := make(chan struct{})
		_ = p.Submit(func(context.Context) error { close(done); return nil })
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not survive a panicking task")
		}
	})

	t.Run("submit after stop", func(t *testing.T) {
		p := NewPool(1, &log)
		p.Start(context.Background())
		p.Stop()
		p.Stop()
		if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
			t.Errorf("wanted ErrStopped, got %v", err)
		}
	})
}
