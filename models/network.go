package models

import "time"

// Quality is the four-level connection quality scale derived from
// round-trip-time and bandwidth estimates.
type Quality int

const (
	QualityPoor Quality = iota
	QualityFair
	QualityGood
	QualityExcellent
)

func (q Quality) String() string {
	switch q {
	case QualityPoor:
		return "poor"
	case QualityFair:
		return "fair"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	}
	return "unknown"
}

// NetworkEventKind is the discrete transition emitted by the monitor.
type NetworkEventKind string

const (
	NetworkEventOnline         NetworkEventKind = "online"
	NetworkEventOffline        NetworkEventKind = "offline"
	NetworkEventQualityChanged NetworkEventKind = "quality-changed"
)

// NetworkState is a snapshot of connectivity as the monitor sees it.
type NetworkState struct {
	Online  bool          `json:"online"`
	Quality Quality       `json:"quality"`
	RTT     time.Duration `json:"rtt"`

	// BandwidthKbps is a rough downstream estimate; zero when unknown.
	BandwidthKbps int64 `json:"bandwidth_kbps,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// NetworkEvent is one transition published to subscribers.
type NetworkEvent struct {
	Kind  NetworkEventKind `json:"kind"`
	State NetworkState     `json:"state"`
}

// SyncStatusSnapshot is the read-only view returned by the sync engine's
// Status call. Producing it triggers no side effects.
type SyncStatusSnapshot struct {
	Online  bool `json:"online"`
	Syncing bool `json:"syncing"`

	PendingCount  int `json:"pending_count"`
	FailedCount   int `json:"failed_count"`
	ConflictCount int `json:"conflict_count"`

	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastSyncError string     `json:"last_sync_error,omitempty"`
}
