package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/netmon"
	"github.com/careloop-health/medsync/internal/service"
	"github.com/careloop-health/medsync/models"
)

// networkDispatcher subscribes to the network monitor and drives the sync
// engine's reactive behavior: flipping the online flag and kicking off a
// sync when connectivity returns. This is the primary path by which queued
// work resumes after an outage.
type networkDispatcher struct {
	monitor *netmon.Monitor
	engine  service.SyncEngine
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNetworkDispatcher constructs the dispatcher. Idle until Start.
func NewNetworkDispatcher(monitor *netmon.Monitor, engine service.SyncEngine, log *logger.Logger) Job {
	return &networkDispatcher{monitor: monitor, engine: engine, logger: log}
}

// Start implements [Job].
func (d *networkDispatcher) Start(ctx context.Context) {
	d.Stop()

	d.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	events, unsubscribe := d.monitor.Subscribe()

	go func() {
		defer d.wg.Done()
		defer unsubscribe()

		for {
			select {
			case <-jobCtx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				d.handle(jobCtx, event)
			}
		}
	}()
}

// Stop implements [Job].
func (d *networkDispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

func (d *networkDispatcher) handle(ctx context.Context, event models.NetworkEvent) {
	switch event.Kind {
	case models.NetworkEventOnline:
		d.engine.SetOnline(true)
		d.engine.SetQuality(event.State.Quality)
		d.logger.Info().Msg("connectivity restored, draining queued work")
		if err := d.engine.Sync(ctx); err != nil && !errors.Is(err, service.ErrOffline) {
			d.logger.Error().Err(err).Msg("reconnect sync failed")
		}
	case models.NetworkEventOffline:
		d.engine.SetOnline(false)
		d.logger.Warn().Msg("connectivity lost, sync paused")
	case models.NetworkEventQualityChanged:
		d.engine.SetQuality(event.State.Quality)
		d.logger.Info().
			Str("quality", event.State.Quality.String()).
			Dur("rtt", event.State.RTT).
			Msg("connection quality changed")
	}
}
