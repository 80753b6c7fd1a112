package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"screen-cleave/src/hotkey"
	"screen-cleave/src/worker"
)

// ErrListenerStopped is returned when the hotkey listener exits on its own.
var ErrListenerStopped = errors.New("hotkey listener stopped")

// Spawner runs one capture and waits for it to finish.
type Spawner interface {
	Spawn(ctx context.Context, args []string) error
}

// ExecSpawner runs captures as child processes of Path.
type ExecSpawner struct {
	Path string
}

func (s ExecSpawner) Spawn(ctx context.Context, args []string) error {
	path := s.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		path = exe
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("capture process failed: %w", err)
	}
	return nil
}

// ListenFunc blocks delivering hotkey presses to cb until ctx is done.
type ListenFunc func(ctx context.Context, combo hotkey.Combo, cb func()) error

type Options struct {
	Combo hotkey.Combo
	// Persistent keeps the loop running after the first capture.
	Persistent bool
	// Sleep is waited once before the hotkey is registered.
	Sleep time.Duration
	// Args are passed to every spawned capture.
	Args    []string
	Spawner Spawner
	Listen  ListenFunc
	// OnBusy is told when a capture starts and ends, e.g. to update a tooltip.
	OnBusy func(busy bool)
}

// Loop is the single-goroutine coordinator for hotkey-triggered captures.
type Loop struct {
	opts     Options
	pool     *worker.Pool
	busy     bool
	triggers chan struct{}
	results  chan error
	captures int
}

// New creates a daemon loop. Spawner defaults to re-running the current
// executable and Listen to the global keyboard hook.
func New(opts Options) *Loop {
	if opts.Spawner == nil {
		opts.Spawner = ExecSpawner{}
	}
	if opts.Listen == nil {
		opts.Listen = hotkey.Listen
	}
	return &Loop{
		opts:     opts,
		pool:     worker.New(1),
		triggers: make(chan struct{}, 4),
		results:  make(chan error, 1),
	}
}

// Trigger requests a capture. It never blocks; extra requests are dropped.
func (l *Loop) Trigger() {
	select {
	case l.triggers <- struct{}{}:
	default:
	}
}

// Captures reports how many captures have finished.
func (l *Loop) Captures() int { return l.captures }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.opts.OnBusy != nil {
		l.opts.OnBusy(b)
	}
}

// Run waits Sleep, then listens for the hotkey and runs captures until ctx is
// cancelled or, without Persistent, until the first capture finishes.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()

	if l.opts.Sleep > 0 {
		t := time.NewTimer(l.opts.Sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	listenCtx, stop := context.WithCancel(ctx)
	defer stop()
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- l.opts.Listen(listenCtx, l.opts.Combo, l.Trigger)
	}()
	log.Printf("Daemon: press %s to capture the screen", l.opts.Combo)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggers:
			l.handleTrigger(ctx)
		case err := <-l.results:
			l.setBusy(false)
			l.captures++
			if err != nil {
				log.Printf("Daemon: capture failed: %v", err)
			} else {
				log.Printf("Daemon: capture finished")
			}
			if !l.opts.Persistent {
				return err
			}
		case err := <-listenErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == nil {
				return ErrListenerStopped
			}
			return fmt.Errorf("%w: %w", ErrListenerStopped, err)
		}
	}
}

func (l *Loop) handleTrigger(ctx context.Context) {
	if l.busy {
		log.Printf("Daemon: capture already running, skipping")
		return
	}
	l.setBusy(true)
	submitted := l.pool.Submit(ctx, "capture", func(ctx context.Context) error {
		return l.opts.Spawner.Spawn(ctx, l.opts.Args)
	}, func(err error) {
		l.results <- err
	})
	if !submitted {
		log.Printf("Daemon: worker busy, dropping capture request")
		l.setBusy(false)
	}
}
