// Package resolver decides the outcome when local and remote copies of the
// same record diverge. Resolution is a pure function of its inputs: no
// clock, no randomness, no I/O.
package resolver

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/careloop-health/medsync/models"
)

// LocalState is the locally stored side of a divergence.
type LocalState struct {
	Version        int64
	Payload        json.RawMessage
	Classification models.Classification
	Deleted        bool
}

// RemoteState is the server's side of a divergence.
type RemoteState struct {
	Version string
	Payload json.RawMessage
	Deleted bool
}

// Decision is the resolver's verdict. A manual winner means the divergence
// must be surfaced to a user instead of being committed automatically.
type Decision struct {
	Winner        models.Winner
	ConflictType  models.ConflictType
	MergedPayload json.RawMessage
}

// MergeFunc attempts a three-way-free merge of two payloads. Returning
// ok=false means the payloads cannot be merged and the tie-break winner
// applies instead.
type MergeFunc func(local, remote json.RawMessage) (merged json.RawMessage, ok bool)

// Policy configures the tie-break behavior. The zero value is not usable;
// call DefaultPolicy.
type Policy struct {
	// TieWinner applies when both sides carry the same version and the
	// record is not escalated. The server copy is authoritative by default.
	TieWinner models.Winner

	// EscalatePHITies sends version ties on phi records to manual review
	// rather than silently discarding a clinical edit.
	EscalatePHITies bool

	// Merge, when set, is attempted on ties before TieWinner applies.
	Merge MergeFunc
}

// DefaultPolicy returns last-writer-wins with remote winning ties, phi ties
// escalated to manual, and no automatic merging.
func DefaultPolicy() Policy {
	return Policy{
		TieWinner:       models.WinnerRemote,
		EscalatePHITies: true,
	}
}

// Resolve decides between local and remote. Delete divergence always
// classifies as a delete conflict and defaults to manual: deleting clinical
// data automatically is never acceptable.
func Resolve(policy Policy, local LocalState, remote RemoteState) Decision {
	if local.Deleted || remote.Deleted {
		return Decision{
			Winner:       models.WinnerManual,
			ConflictType: models.ConflictTypeDelete,
		}
	}

	remoteVersion, ok := ParseVersion(remote.Version)
	if !ok {
		// An opaque remote version cannot be ordered against the local
		// counter, so no automatic outcome is safe.
		return Decision{
			Winner:       models.WinnerManual,
			ConflictType: models.ConflictTypeUpdate,
		}
	}

	switch {
	case local.Version > remoteVersion:
		return Decision{Winner: models.WinnerLocal, ConflictType: models.ConflictTypeUpdate}
	case local.Version < remoteVersion:
		return Decision{Winner: models.WinnerRemote, ConflictType: models.ConflictTypeUpdate}
	}

	// Version tie.
	if policy.EscalatePHITies && local.Classification == models.ClassificationPHI {
		return Decision{Winner: models.WinnerManual, ConflictType: models.ConflictTypeUpdate}
	}
	if policy.Merge != nil {
		if merged, ok := policy.Merge(local.Payload, remote.Payload); ok {
			return Decision{
				Winner:        models.WinnerMerged,
				ConflictType:  models.ConflictTypeUpdate,
				MergedPayload: merged,
			}
		}
	}
	return Decision{Winner: policy.TieWinner, ConflictType: models.ConflictTypeUpdate}
}

// ParseVersion extracts an orderable version number from a server version
// token. Both bare integers ("5") and weak-ETag form (`W/"5"`) are
// understood; anything else reports ok=false.
func ParseVersion(token string) (int64, bool) {
	s := strings.TrimSpace(token)
	if strings.HasPrefix(s, "W/") {
		s = strings.TrimPrefix(s, "W/")
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
