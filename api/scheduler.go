/*
scheduler.go - Pending shift sweeper

PURPOSE:
  Periodically removes expired pending shifts so abandoned drafts don't
  accumulate in memory. Expired entries are already invisible to readers;
  the sweeper only reclaims them.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Sweeps once immediately on start
  - Stop blocks until the goroutine has exited

USAGE:
  sweeper := NewPendingSweeper(pendingStore, logger)
  sweeper.Interval = cfg.PendingSweepInterval
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - pending/pending.go: Expiry policy
*/
package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/warp/shift-earnings/pending"
)

// PendingSweeper drops expired pending shifts on a timer.
type PendingSweeper struct {
	Pending  *pending.Store
	Logger   *slog.Logger
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPendingSweeper creates a sweeper with a one minute interval.
func NewPendingSweeper(store *pending.Store, logger *slog.Logger) *PendingSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingSweeper{
		Pending:  store,
		Logger:   logger,
		Interval: time.Minute,
	}
}

// Start begins sweeping. Calling Start on a running sweeper is a no-op.
func (ps *PendingSweeper) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.Interval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	ps.Logger.Info("pending sweeper started", "interval", ps.Interval)
}

// Stop stops the sweeper and waits for it to exit.
func (ps *PendingSweeper) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.wg.Wait()
	ps.ticker = nil
	ps.Logger.Info("pending sweeper stopped")
}

func (ps *PendingSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	ps.sweep()

	for {
		select {
		case <-ticker.C:
			ps.sweep()
		case <-stop:
			return
		}
	}
}

func (ps *PendingSweeper) sweep() {
	if n := ps.Pending.Sweep(); n > 0 {
		ps.Logger.Info("expired pending shifts removed", "count", n)
	}
}
