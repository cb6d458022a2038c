package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

func newTestQueue() *RetryQueue {
	return NewRetryQueue(DefaultConfig(), logger.Nop())
}

func item(id string, priority models.Priority, at time.Time) models.RetryQueueItem {
	return models.RetryQueueItem{
		ID: id,
		Action: models.SyncAction{
			Operation:    models.OperationUpdate,
			ResourceType: "Observation",
			RecordID:     id,
		},
		Priority:  priority,
		Timestamp: at,
		BackoffMs: 0, // filled from config on Enqueue
	}
}

func TestRetryQueue_PriorityThenFIFOOrder(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("low-1", models.PriorityLow, base))
	q.Enqueue(item("high-1", models.PriorityHigh, base.Add(time.Second)))
	q.Enqueue(item("normal-1", models.PriorityNormal, base.Add(2*time.Second)))

	ready := q.DequeueReady(base.Add(time.Hour))
	require.Len(t, ready, 3)
	assert.Equal(t, "high-1", ready[0].ID)
	assert.Equal(t, "normal-1", ready[1].ID)
	assert.Equal(t, "low-1", ready[2].ID)
}

func TestRetryQueue_FIFOWithinPriority(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("second", models.PriorityHigh, base.Add(time.Second)))
	q.Enqueue(item("first", models.PriorityHigh, base))
	q.Enqueue(item("third", models.PriorityHigh, base.Add(2*time.Second)))

	ready := q.DequeueReady(base.Add(time.Hour))
	require.Len(t, ready, 3)
	assert.Equal(t, "first", ready[0].ID)
	assert.Equal(t, "second", ready[1].ID)
	assert.Equal(t, "third", ready[2].ID)
}

func TestRetryQueue_EnqueueReplacesByID(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	first := item("obs-1", models.PriorityLow, base)
	first.Action.Operation = models.OperationCreate
	q.Enqueue(first)

	second := item("obs-1", models.PriorityHigh, base.Add(time.Second))
	second.Action.Operation = models.OperationUpdate
	q.Enqueue(second)

	assert.Equal(t, 1, q.Len())

	ready := q.DequeueReady(base.Add(time.Hour))
	require.Len(t, ready, 1)
	assert.Equal(t, models.OperationUpdate, ready[0].Action.Operation)
	assert.Equal(t, models.PriorityHigh, ready[0].Priority)
}

func TestRetryQueue_BackoffWindowGatesReadiness(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("obs-1", models.PriorityNormal, base))

	// Initial backoff is 1s: not ready before the window elapses.
	assert.Empty(t, q.DequeueReady(base.Add(500*time.Millisecond)))
	assert.Len(t, q.DequeueReady(base.Add(time.Second)), 1)
}

func TestRetryQueue_ReportFailure_BackoffDoublesUpToCap(t *testing.T) {
	cfg := Config{
		MaxRetries:     10,
		InitialBackoff: time.Second,
		Multiplier:     2,
		MaxBackoff:     30 * time.Second,
	}
	q := NewRetryQueue(cfg, logger.Nop())
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("obs-1", models.PriorityNormal, base))

	wantBackoffs := []int64{2000, 4000, 8000, 16000, 30000, 30000}
	now := base
	for _, want := range wantBackoffs {
		permanent := q.ReportFailure("obs-1", now)
		require.False(t, permanent)

		ready := q.DequeueReady(now.Add(time.Duration(want) * time.Millisecond))
		require.Len(t, ready, 1)
		assert.Equal(t, want, ready[0].BackoffMs)

		// Still inside the window one millisecond earlier.
		assert.Empty(t, q.DequeueReady(now.Add(time.Duration(want-1)*time.Millisecond)))
		now = now.Add(time.Duration(want) * time.Millisecond)
	}
}

func TestRetryQueue_ReportFailure_RemovesAtMaxRetries(t *testing.T) {
	q := newTestQueue() // MaxRetries = 3
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("obs-1", models.PriorityNormal, base))

	assert.False(t, q.ReportFailure("obs-1", base))
	assert.False(t, q.ReportFailure("obs-1", base))
	assert.True(t, q.ReportFailure("obs-1", base), "third failure is permanent")

	assert.Equal(t, 0, q.Len())
	assert.False(t, q.ReportFailure("obs-1", base), "unknown id is a no-op")
}

func TestRetryQueue_ReportSuccess_RemovesItem(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("obs-1", models.PriorityNormal, base))
	q.Enqueue(item("obs-2", models.PriorityNormal, base))

	q.ReportSuccess("obs-1")
	assert.Equal(t, 1, q.Len())

	ready := q.DequeueReady(base.Add(time.Hour))
	require.Len(t, ready, 1)
	assert.Equal(t, "obs-2", ready[0].ID)

	q.ReportSuccess("never-queued") // must not panic
}

func TestRetryQueue_Remove(t *testing.T) {
	q := newTestQueue()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	q.Enqueue(item("obs-1", models.PriorityNormal, base))
	q.Remove("obs-1")
	assert.Equal(t, 0, q.Len())
}

func TestRetryQueue_TryDrain_Reentrancy(t *testing.T) {
	q := newTestQueue()

	outerRan := false
	innerRan := false
	ok := q.TryDrain(func() {
		outerRan = true
		// A second drain triggered while one is running must be refused.
		assert.False(t, q.TryDrain(func() { innerRan = true }))
	})

	assert.True(t, ok)
	assert.True(t, outerRan)
	assert.False(t, innerRan)

	// Guard releases after the pass completes.
	assert.True(t, q.TryDrain(func() {}))
}
