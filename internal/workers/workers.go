package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/netmon"
	"github.com/careloop-health/medsync/internal/service"
)

// tickerJob runs fn on a fixed interval until stopped. Overlapping fires
// are tolerated: the components behind fn carry their own reentrancy
// guards, so a slow pass simply makes the next tick a no-op.
type tickerJob struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTickerJob(name string, interval time.Duration, fn func(ctx context.Context), log *logger.Logger) *tickerJob {
	return &tickerJob{name: name, interval: interval, fn: fn, logger: log}
}

// Start implements [Job]. It stops any previously running instance, then
// launches a goroutine firing fn every interval until ctx is cancelled or
// Stop is called.
func (j *tickerJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	j.logger.Debug().Str("job", j.name).Dur("interval", j.interval).Msg("worker started")

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.fn(jobCtx)
			}
		}
	}()
}

// Stop implements [Job]. Safe to call when the job is not running.
func (j *tickerJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// NewRetryWorker drives the sync engine on the retry-check interval. The
// engine's in-flight guard collapses ticks that arrive while a cycle is
// still running.
func NewRetryWorker(engine service.SyncEngine, interval time.Duration, log *logger.Logger) Job {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return newTickerJob("retry-drain", interval, func(ctx context.Context) {
		if err := engine.Sync(ctx); err != nil && !errors.Is(err, service.ErrOffline) {
			log.Error().Err(err).Msg("periodic sync failed")
		}
	}, log)
}

// Purger is the slice of the secure store the purge worker needs.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// NewPurgeWorker removes expired records on a fixed interval.
func NewPurgeWorker(store Purger, interval time.Duration, log *logger.Logger) Job {
	if interval <= 0 {
		interval = time.Minute
	}
	return newTickerJob("expiry-purge", interval, func(ctx context.Context) {
		purged, err := store.PurgeExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("expiry purge failed")
			return
		}
		if purged > 0 {
			log.Info().Int("purged", purged).Msg("expired records purged")
		}
	}, log)
}

// NewProbeWorker probes connectivity on a fixed interval, feeding the
// network monitor's transition stream.
func NewProbeWorker(monitor *netmon.Monitor, interval time.Duration, log *logger.Logger) Job {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return newTickerJob("network-probe", interval, func(ctx context.Context) {
		monitor.CheckNow(ctx)
	}, log)
}
