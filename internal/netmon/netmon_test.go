package netmon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

// stubPinger returns a scripted sequence of probe results.
type stubPinger struct {
	mu      sync.Mutex
	results []pingResult
}

type pingResult struct {
	rtt time.Duration
	err error
}

func (s *stubPinger) Ping(context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return 0, errors.New("no scripted result")
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r.rtt, r.err
}

func drainEvents(ch <-chan models.NetworkEvent) []models.NetworkEvent {
	var events []models.NetworkEvent
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestMonitor_OnlineOfflineTransitions(t *testing.T) {
	pinger := &stubPinger{results: []pingResult{
		{rtt: 50 * time.Millisecond},
		{err: errors.New("unreachable")},
		{rtt: 80 * time.Millisecond},
	}}
	m := NewMonitor(pinger, logger.Nop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	m.CheckNow(ctx)

	events := drainEvents(ch)
	require.Len(t, events, 3)
	assert.Equal(t, models.NetworkEventOnline, events[0].Kind)
	assert.Equal(t, models.NetworkEventOffline, events[1].Kind)
	assert.Equal(t, models.NetworkEventOnline, events[2].Kind)
	assert.True(t, m.State().Online)
}

func TestMonitor_SteadyStateEmitsNothing(t *testing.T) {
	pinger := &stubPinger{results: []pingResult{{rtt: 50 * time.Millisecond}}}
	m := NewMonitor(pinger, logger.Nop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	m.CheckNow(ctx)

	events := drainEvents(ch)
	require.Len(t, events, 1, "only the initial online transition")
}

func TestMonitor_QualityChanged(t *testing.T) {
	pinger := &stubPinger{results: []pingResult{
		{rtt: 50 * time.Millisecond},  // excellent
		{rtt: 900 * time.Millisecond}, // poor
	}}
	m := NewMonitor(pinger, logger.Nop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	m.CheckNow(ctx)
	m.CheckNow(ctx)

	events := drainEvents(ch)
	require.Len(t, events, 2)
	assert.Equal(t, models.NetworkEventQualityChanged, events[1].Kind)
	assert.Equal(t, models.QualityPoor, events[1].State.Quality)
}

func TestMonitor_FirstProbeOfflineStillEmits(t *testing.T) {
	pinger := &stubPinger{results: []pingResult{{err: errors.New("unreachable")}}}
	m := NewMonitor(pinger, logger.Nop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.CheckNow(context.Background())

	events := drainEvents(ch)
	require.Len(t, events, 1)
	assert.Equal(t, models.NetworkEventOffline, events[0].Kind)
}

func TestMonitor_Unsubscribe(t *testing.T) {
	pinger := &stubPinger{results: []pingResult{{rtt: 50 * time.Millisecond}}}
	m := NewMonitor(pinger, logger.Nop())

	ch, unsubscribe := m.Subscribe()
	unsubscribe()

	// Channel closes and later transitions never arrive.
	m.CheckNow(context.Background())
	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	unsubscribe()
}

func TestMonitor_SlowSubscriberDoesNotBlock(t *testing.T) {
	script := []pingResult{{rtt: 50 * time.Millisecond}}
	for i := 0; i < 20; i++ {
		script = append(script,
			pingResult{err: errors.New("down")},
			pingResult{rtt: 50 * time.Millisecond},
		)
	}
	pinger := &stubPinger{results: script}
	m := NewMonitor(pinger, logger.Nop())

	// Subscribe but never drain; the monitor must keep probing.
	_, unsubscribe := m.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < len(script); i++ {
			m.CheckNow(context.Background())
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor blocked on a slow subscriber")
	}
}

func TestQualityFromRTT(t *testing.T) {
	tests := []struct {
		rtt  time.Duration
		want models.Quality
	}{
		{30 * time.Millisecond, models.QualityExcellent},
		{100 * time.Millisecond, models.QualityExcellent},
		{200 * time.Millisecond, models.QualityGood},
		{500 * time.Millisecond, models.QualityFair},
		{2 * time.Second, models.QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFromRTT(tt.rtt), "rtt %v", tt.rtt)
	}
}
