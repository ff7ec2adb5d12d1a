// Package schedule runs functions on a fixed interval.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Periodic calls a function every interval on its own goroutine until
// stopped. Start and Stop are idempotent.
type Periodic struct {
	name     string
	interval time.Duration
	fn       func()
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped timer. The first call happens one interval after Start.
func New(name string, interval time.Duration, fn func(), logger *slog.Logger) *Periodic {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Periodic{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
	}
}

// Start launches the timer. It reports false when the timer was already running.
func (p *Periodic) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	return true
}

// Stop halts the timer and waits for an in-flight call to return. It reports
// false when the timer was not running.
func (p *Periodic) Stop() bool {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// Running reports whether the timer is started.
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Interval returns the configured period.
func (p *Periodic) Interval() time.Duration {
	return p.interval
}

func (p *Periodic) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("timer started", "timer", p.name, "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("timer stopped", "timer", p.name)
			return
		case <-ticker.C:
			p.fn()
		}
	}
}
