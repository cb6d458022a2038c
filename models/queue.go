package models

import "time"

// Priority orders retry-queue items. Lower value drains first.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 1
	PriorityLow    Priority = 2
)

// String returns the lowercase label used in logs and the status endpoint.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// Operation is the kind of remote mutation a queued action performs.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// SyncAction describes one deferred remote mutation. The queue treats it as
// opaque; only the sync engine interprets it.
type SyncAction struct {
	Operation    Operation `json:"operation"`
	ResourceType string    `json:"resource_type"`
	RecordID     string    `json:"record_id"`

	// BaseVersion is the remote version the mutation was built against.
	// The server compares it for optimistic locking.
	BaseVersion string `json:"base_version,omitempty"`
}

// RetryQueueItem is a deferred operation awaiting successful execution.
// Enqueueing an item with an id already present replaces the earlier entry.
type RetryQueueItem struct {
	ID     string     `json:"id"`
	Action SyncAction `json:"action"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	// BackoffMs is the current wait floor before the next attempt.
	BackoffMs int64 `json:"backoff_ms"`

	Priority Priority `json:"priority"`

	// Timestamp is the time of the last attempt (or of enqueueing, before
	// the first attempt).
	Timestamp time.Time `json:"timestamp"`
}

// Ready reports whether the item's backoff window has elapsed at now.
func (i RetryQueueItem) Ready(now time.Time) bool {
	return now.Sub(i.Timestamp) >= time.Duration(i.BackoffMs)*time.Millisecond
}
