package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Clock advances cities on a wall-clock schedule. The engine itself has no
// notion of real time; Clock only decides when OnYear fires, and OnYear is
// responsible for locking whatever cities it advances.
type Clock struct {
	Interval time.Duration // wall time per simulated year
	OnYear   func(ctx context.Context, tick uint64)

	ticks   atomic.Uint64
	running atomic.Bool
	paused  atomic.Bool
}

// NewClock creates a clock firing every interval.
func NewClock(interval time.Duration, onYear func(ctx context.Context, tick uint64)) *Clock {
	return &Clock{Interval: interval, OnYear: onYear}
}

// Ticks returns how many years the clock has fired.
func (c *Clock) Ticks() uint64 {
	return c.ticks.Load()
}

// Running reports whether Run is active.
func (c *Clock) Running() bool {
	return c.running.Load()
}

// Pause stops OnYear from firing until Resume; Run keeps waiting.
func (c *Clock) Pause() { c.paused.Store(true) }

// Resume undoes Pause.
func (c *Clock) Resume() { c.paused.Store(false) }

// Run fires OnYear every Interval. Blocks until ctx is done. A non-positive
// Interval returns immediately.
func (c *Clock) Run(ctx context.Context) {
	if c.Interval <= 0 || c.OnYear == nil {
		return
	}
	c.running.Store(true)
	defer c.running.Store(false)
	slog.Info("simulation clock started", "interval", c.Interval)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation clock stopped", "ticks", c.ticks.Load())
			return
		case <-ticker.C:
			if c.paused.Load() {
				continue
			}
			c.OnYear(ctx, c.ticks.Add(1))
		}
	}
}
