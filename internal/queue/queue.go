// Package queue implements the retry/backoff queue that holds remote
// operations which could not complete immediately. Items wait out an
// exponentially growing backoff window between attempts and drain in
// priority-then-FIFO order.
package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/models"
)

// Config tunes the backoff schedule applied to queued items.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Multiplier     int
	MaxBackoff     time.Duration
}

// DefaultConfig returns the backoff schedule used when the caller passes a
// zero Config: 3 attempts, 1s initial wait, doubling up to a 30s cap.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		Multiplier:     2,
		MaxBackoff:     30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.Multiplier < 2 {
		c.Multiplier = d.Multiplier
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	return c
}

// RetryQueue is an in-memory index over records awaiting sync. Contents do
// not survive a crash; the sync engine rebuilds the queue from the secure
// store's pending/failed records on startup.
type RetryQueue struct {
	cfg    Config
	logger *logger.Logger

	mu    sync.Mutex
	items map[string]*models.RetryQueueItem
	order []string // item ids, kept in priority/FIFO order

	// draining guards against two concurrent drain passes, e.g. a timer
	// tick racing a network-reconnect trigger.
	draining bool
}

// NewRetryQueue constructs an empty queue with the given backoff schedule.
func NewRetryQueue(cfg Config, log *logger.Logger) *RetryQueue {
	return &RetryQueue{
		cfg:    cfg.withDefaults(),
		logger: log,
		items:  make(map[string]*models.RetryQueueItem),
	}
}

// Enqueue inserts item, replacing any earlier entry with the same id.
// Zero-valued retry fields are filled from the queue's config.
func (q *RetryQueue) Enqueue(item models.RetryQueueItem) {
	if item.MaxRetries <= 0 {
		item.MaxRetries = q.cfg.MaxRetries
	}
	if item.BackoffMs <= 0 {
		item.BackoffMs = q.cfg.InitialBackoff.Milliseconds()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items[item.ID] = &item
	q.resort()

	q.logger.Debug().
		Str("item_id", item.ID).
		Str("priority", item.Priority.String()).
		Int("queue_len", len(q.items)).
		Msg("enqueued retry item")
}

// DequeueReady returns copies of all items whose backoff window has elapsed
// at now, in priority-then-FIFO order. Items are not removed; the caller
// reports the attempt outcome via ReportSuccess or ReportFailure.
func (q *RetryQueue) DequeueReady(now time.Time) []models.RetryQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []models.RetryQueueItem
	for _, id := range q.order {
		item := q.items[id]
		if item.Ready(now) {
			ready = append(ready, *item)
		}
	}
	return ready
}

// ReportSuccess removes the item. Unknown ids are ignored, so a success
// reported after a replacement Enqueue cannot evict the newer entry's state.
func (q *RetryQueue) ReportSuccess(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(id)
}

// ReportFailure increments the item's retry count. When the count reaches
// MaxRetries the item is removed and ReportFailure returns true, signalling
// permanent failure to the caller; otherwise the backoff doubles (capped)
// and the attempt timestamp resets to now.
func (q *RetryQueue) ReportFailure(id string, now time.Time) (permanent bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return false
	}

	item.RetryCount++
	if item.RetryCount >= item.MaxRetries {
		q.remove(id)
		q.logger.Warn().
			Str("item_id", id).
			Int("retry_count", item.RetryCount).
			Msg("retry attempts exhausted, dropping item")
		return true
	}

	next := item.BackoffMs * int64(q.cfg.Multiplier)
	if capMs := q.cfg.MaxBackoff.Milliseconds(); next > capMs {
		next = capMs
	}
	item.BackoffMs = next
	item.Timestamp = now

	q.logger.Debug().
		Str("item_id", id).
		Int("retry_count", item.RetryCount).
		Int64("backoff_ms", item.BackoffMs).
		Msg("retry item backed off")
	return false
}

// Remove drops the item without treating it as success or failure. Used when
// an operation escalates to a conflict, which backoff cannot fix.
func (q *RetryQueue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(id)
}

// Len returns the number of queued items.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// TryDrain runs fn under the queue's reentrancy guard. It returns false
// without calling fn when another drain pass is already in flight, so
// overlapping periodic and event-driven triggers collapse into one pass.
func (q *RetryQueue) TryDrain(fn func()) bool {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return false
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	fn()
	return true
}

// remove deletes the item and its order slot. Callers hold q.mu.
func (q *RetryQueue) remove(id string) {
	if _, ok := q.items[id]; !ok {
		return
	}
	delete(q.items, id)
	for i, ordered := range q.order {
		if ordered == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// resort rebuilds the drain order: priority tier first, then FIFO by the
// last-attempt timestamp within a tier. Callers hold q.mu.
func (q *RetryQueue) resort() {
	q.order = q.order[:0]
	for id := range q.items {
		q.order = append(q.order, id)
	}
	sort.SliceStable(q.order, func(i, j int) bool {
		a, b := q.items[q.order[i]], q.items[q.order[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}
