package wm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/biscuitwm/internal/platform"
)

// reconcileInterval is how often the registry is checked against the server.
const reconcileInterval = 10 * time.Second

// Run dispatches events until the quit key, ctx cancellation or the loss
// of the display connection. Only connection loss is an error.
func (m *Manager) Run(ctx context.Context) error {
	events := make(chan platform.Event)
	errs := make(chan error, 1)
	go m.pump(ctx, events, errs)

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	m.logger.Info("entering event loop")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("event loop stopped", "reason", ctx.Err())
			return nil
		case err := <-errs:
			return fmt.Errorf("event loop: %w", err)
		case ev := <-events:
			if err := m.Handle(ev); errors.Is(err, ErrQuit) {
				m.logger.Info("quit requested")
				return nil
			}
		case <-m.bar.Redraws():
			m.Redraw()
		case <-ticker.C:
			if n := m.Reconcile(); n > 0 {
				m.afterEvent()
			}
		}
	}
}

// pump is the only goroutine blocked on the connection. It forwards events
// until the connection is lost or ctx is done. Errors from failed requests
// are logged and skipped.
func (m *Manager) pump(ctx context.Context, events chan<- platform.Event, errs chan<- error) {
	for {
		ev, err := m.backend.NextEvent()
		if errors.Is(err, platform.ErrConnectionLost) {
			errs <- err
			return
		}
		if err != nil {
			if errors.Is(err, platform.ErrWindowGone) {
				m.logger.Debug("request against vanished window", "error", err)
			} else {
				m.logger.Warn("request failed", "error", err)
			}
			continue
		}
		if ev.Kind == platform.EventOther {
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
