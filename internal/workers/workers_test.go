package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/netmon"
	"github.com/careloop-health/medsync/internal/service"
	"github.com/careloop-health/medsync/models"
)

// spyEngine counts calls; Sync, SetOnline, and SetQuality are the only
// methods the workers exercise.
type spyEngine struct {
	syncCalls   atomic.Int64
	onlineCalls atomic.Int64
	lastOnline  atomic.Bool
	lastQuality atomic.Int64
	syncErr     error
}

func (s *spyEngine) QueueOperation(context.Context, models.Operation, models.StoredRecord, service.Options) error {
	return nil
}
func (s *spyEngine) Sync(context.Context) error {
	s.syncCalls.Add(1)
	return s.syncErr
}
func (s *spyEngine) ResolveConflict(context.Context, string, models.Resolution, string) error {
	return nil
}
func (s *spyEngine) Status(context.Context) (models.SyncStatusSnapshot, error) {
	return models.SyncStatusSnapshot{}, nil
}
func (s *spyEngine) Rebuild(context.Context) error { return nil }
func (s *spyEngine) SetOnline(online bool) {
	s.onlineCalls.Add(1)
	s.lastOnline.Store(online)
}
func (s *spyEngine) SetQuality(quality models.Quality) {
	s.lastQuality.Store(int64(quality))
}

type spyPurger struct {
	calls atomic.Int64
}

func (s *spyPurger) PurgeExpired(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, nil
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestRetryWorker_FiresPeriodically(t *testing.T) {
	engine := &spyEngine{}
	job := NewRetryWorker(engine, 10*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	defer job.Stop()

	eventually(t, func() bool { return engine.syncCalls.Load() >= 3 }, "sync never fired")
}

func TestRetryWorker_ToleratesOfflineEngine(t *testing.T) {
	engine := &spyEngine{syncErr: service.ErrOffline}
	job := NewRetryWorker(engine, 10*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	defer job.Stop()

	eventually(t, func() bool { return engine.syncCalls.Load() >= 2 }, "worker stopped on offline error")
}

func TestPurgeWorker_FiresPeriodically(t *testing.T) {
	purger := &spyPurger{}
	job := NewPurgeWorker(purger, 10*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	defer job.Stop()

	eventually(t, func() bool { return purger.calls.Load() >= 2 }, "purge never fired")
}

func TestTickerJob_StopBlocksUntilExit(t *testing.T) {
	engine := &spyEngine{}
	job := NewRetryWorker(engine, 5*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	eventually(t, func() bool { return engine.syncCalls.Load() >= 1 }, "sync never fired")

	job.Stop()
	after := engine.syncCalls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, engine.syncCalls.Load(), "ticks after Stop")

	// Stop again is a no-op.
	job.Stop()
}

func TestTickerJob_RestartReplacesPrevious(t *testing.T) {
	engine := &spyEngine{}
	job := NewRetryWorker(engine, 10*time.Millisecond, logger.Nop())

	ctx := context.Background()
	job.Start(ctx)
	job.Start(ctx) // implicit stop of the first instance
	defer job.Stop()

	eventually(t, func() bool { return engine.syncCalls.Load() >= 2 }, "restarted job never fired")
}

// scriptedPinger flips between offline and online on demand.
type scriptedPinger struct {
	online atomic.Bool
}

func (p *scriptedPinger) Ping(context.Context) (time.Duration, error) {
	if p.online.Load() {
		return 50 * time.Millisecond, nil
	}
	return 0, errors.New("unreachable")
}

func TestNetworkDispatcher_ReconnectTriggersSync(t *testing.T) {
	pinger := &scriptedPinger{}
	monitor := netmon.NewMonitor(pinger, logger.Nop())
	engine := &spyEngine{}

	dispatcher := NewNetworkDispatcher(monitor, engine, logger.Nop())
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	ctx := context.Background()

	// First probe: offline.
	monitor.CheckNow(ctx)
	eventually(t, func() bool { return engine.onlineCalls.Load() >= 1 }, "offline transition not dispatched")
	assert.False(t, engine.lastOnline.Load())
	assert.Zero(t, engine.syncCalls.Load())

	// Reconnect: engine flips online and a sync is kicked off. The 50ms
	// scripted RTT maps to excellent quality.
	pinger.online.Store(true)
	monitor.CheckNow(ctx)
	eventually(t, func() bool { return engine.syncCalls.Load() >= 1 }, "reconnect sync not triggered")
	assert.True(t, engine.lastOnline.Load())
	assert.Equal(t, int64(models.QualityExcellent), engine.lastQuality.Load())
}

func TestWorkers_Aggregate(t *testing.T) {
	engine := &spyEngine{}
	purger := &spyPurger{}

	all := NewWorkers(
		NewRetryWorker(engine, 10*time.Millisecond, logger.Nop()),
		NewPurgeWorker(purger, 10*time.Millisecond, logger.Nop()),
	)

	all.Start(context.Background())
	eventually(t, func() bool {
		return engine.syncCalls.Load() >= 1 && purger.calls.Load() >= 1
	}, "aggregate jobs never fired")

	all.Stop()
	syncAfter, purgeAfter := engine.syncCalls.Load(), purger.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, syncAfter, engine.syncCalls.Load())
	assert.Equal(t, purgeAfter, purger.calls.Load())
}
