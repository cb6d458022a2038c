// Package netmon watches connectivity to the remote endpoint and publishes
// discrete online/offline/quality transitions to subscribers. Components
// react to events instead of polling connectivity per operation.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

// Pinger measures reachability of the remote endpoint.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// RTT thresholds separating the four quality levels.
const (
	rttExcellent = 100 * time.Millisecond
	rttGood      = 300 * time.Millisecond
	rttFair      = 750 * time.Millisecond
)

// Monitor probes the remote endpoint and fans transitions out to
// subscribers. Events are dropped, not buffered indefinitely, for
// subscribers that stop draining their channel.
type Monitor struct {
	pinger Pinger
	logger *logger.Logger

	mu     sync.Mutex
	state  models.NetworkState
	probed bool
	subs   map[int]chan models.NetworkEvent
	nextID int
}

// NewMonitor constructs a Monitor. No probing happens until CheckNow is
// called, typically from a ticker worker.
func NewMonitor(pinger Pinger, log *logger.Logger) *Monitor {
	return &Monitor{
		pinger: pinger,
		logger: log,
		subs:   make(map[int]chan models.NetworkEvent),
	}
}

// Subscribe registers an event channel and returns it with an unsubscribe
// function. The channel is buffered; a subscriber that falls behind misses
// events rather than blocking the monitor.
func (m *Monitor) Subscribe() (<-chan models.NetworkEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan models.NetworkEvent, 8)
	m.subs[id] = ch

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// State returns the most recent snapshot. Before the first probe it reports
// offline.
func (m *Monitor) State() models.NetworkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CheckNow probes the endpoint once and emits whatever transitions the
// result implies: online/offline flips always, quality-changed only while
// online. Designed to be driven by a periodic worker; safe for concurrent
// callers.
func (m *Monitor) CheckNow(ctx context.Context) models.NetworkState {
	rtt, err := m.pinger.Ping(ctx)

	next := models.NetworkState{
		Online:    err == nil,
		RTT:       rtt,
		CheckedAt: time.Now(),
	}
	if err == nil {
		next.Quality = QualityFromRTT(rtt)
	}

	m.mu.Lock()
	prev, probed := m.state, m.probed
	m.state, m.probed = next, true

	var events []models.NetworkEvent
	switch {
	case next.Online && (!probed || !prev.Online):
		events = append(events, models.NetworkEvent{Kind: models.NetworkEventOnline, State: next})
	case !next.Online && (!probed || prev.Online):
		events = append(events, models.NetworkEvent{Kind: models.NetworkEventOffline, State: next})
	case next.Online && prev.Online && next.Quality != prev.Quality:
		events = append(events, models.NetworkEvent{Kind: models.NetworkEventQualityChanged, State: next})
	}
	m.mu.Unlock()

	for _, event := range events {
		m.publish(event)
	}
	return next
}

func (m *Monitor) publish(event models.NetworkEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug().
		Str("kind", string(event.Kind)).
		Bool("online", event.State.Online).
		Str("quality", event.State.Quality.String()).
		Dur("rtt", event.State.RTT).
		Msg("network transition")

	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is not draining; drop rather than stall.
		}
	}
}

// QualityFromRTT maps a measured round-trip time onto the four-level scale.
func QualityFromRTT(rtt time.Duration) models.Quality {
	switch {
	case rtt <= rttExcellent:
		return models.QualityExcellent
	case rtt <= rttGood:
		return models.QualityGood
	case rtt <= rttFair:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
