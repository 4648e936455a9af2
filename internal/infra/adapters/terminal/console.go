package terminal

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// Console feeds lines from in to the controller until EOF, /quit or ctx ends.
type Console struct {
	in   io.Reader
	ctrl *Controller
	log  *zerolog.Logger
}

func NewConsole(in io.Reader, ctrl *Controller, logger *zerolog.Logger) *Console {
	l := logger.With().Str("component", "Console").Logger()
	return &Console{in: in, ctrl: ctrl, log: &l}
}

// Run blocks. It returns nil on EOF or quit and ctx.Err() on cancellation.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	// Reading stdin can't be interrupted, so the scanner lives in its own
	// goroutine and is abandoned on shutdown.
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						c.log.Error().Err(err).Msg("read input")
						return err
					}
				default:
				}
				c.log.Info().Msg("input closed")
				return nil
			}
			if err := c.ctrl.Handle(ctx, line); errors.Is(err, ErrQuit) {
				c.log.Info().Msg("quit requested")
				return nil
			}
		}
	}
}
