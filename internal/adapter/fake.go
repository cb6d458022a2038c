package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type fakeResource struct {
	payload json.RawMessage
	version int64
	deleted bool
}

// FakeRemote is an in-memory [RemoteEndpoint] with the same optimistic
// locking semantics as the HTTP implementation. It backs the -remote-fake
// development mode and integration-style tests that need a server without a
// network.
type FakeRemote struct {
	mu        sync.Mutex
	resources map[string]*fakeResource
	token     string
	offline   bool
	latency   time.Duration
}

// NewFakeRemote constructs an empty fake server.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{resources: make(map[string]*fakeResource)}
}

// SetOffline makes every subsequent call fail with [ErrTransientNetwork]
// until re-enabled, simulating a connectivity outage.
func (f *FakeRemote) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

// SetLatency fixes the RTT reported by Ping.
func (f *FakeRemote) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// Seed installs a resource at a given version, bypassing optimistic
// locking. Used to stage divergence scenarios.
func (f *FakeRemote) Seed(resourceType, id string, payload json.RawMessage, version int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[resourceKey(resourceType, id)] = &fakeResource{payload: payload, version: version}
}

// SetToken implements [RemoteEndpoint].
func (f *FakeRemote) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// Token implements [RemoteEndpoint].
func (f *FakeRemote) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// Create implements [RemoteEndpoint].
func (f *FakeRemote) Create(_ context.Context, resourceType, id string, payload json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return "", fmt.Errorf("%w: fake remote offline", ErrTransientNetwork)
	}

	key := resourceKey(resourceType, id)
	if existing, ok := f.resources[key]; ok && !existing.deleted {
		return "", fmt.Errorf("%w: resource already exists", ErrVersionConflict)
	}

	f.resources[key] = &fakeResource{payload: payload, version: 1}
	return formatVersion(1), nil
}

// Update implements [RemoteEndpoint].
func (f *FakeRemote) Update(_ context.Context, resourceType, id string, payload json.RawMessage, baseVersion string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return "", fmt.Errorf("%w: fake remote offline", ErrTransientNetwork)
	}

	res, ok := f.resources[resourceKey(resourceType, id)]
	if !ok || res.deleted {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, resourceType, id)
	}
	if baseVersion != formatVersion(res.version) {
		return "", fmt.Errorf("%w: base %s, current %s", ErrVersionConflict, baseVersion, formatVersion(res.version))
	}

	res.payload = payload
	res.version++
	return formatVersion(res.version), nil
}

// Delete implements [RemoteEndpoint].
func (f *FakeRemote) Delete(_ context.Context, resourceType, id, baseVersion string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return fmt.Errorf("%w: fake remote offline", ErrTransientNetwork)
	}

	res, ok := f.resources[resourceKey(resourceType, id)]
	if !ok || res.deleted {
		return nil
	}
	if baseVersion != "" && baseVersion != formatVersion(res.version) {
		return fmt.Errorf("%w: base %s, current %s", ErrVersionConflict, baseVersion, formatVersion(res.version))
	}

	res.deleted = true
	res.version++
	return nil
}

// Fetch implements [RemoteEndpoint].
func (f *FakeRemote) Fetch(_ context.Context, resourceType, id string) (RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return RemoteRecord{}, fmt.Errorf("%w: fake remote offline", ErrTransientNetwork)
	}

	res, ok := f.resources[resourceKey(resourceType, id)]
	if !ok {
		return RemoteRecord{}, fmt.Errorf("%w: %s/%s", ErrNotFound, resourceType, id)
	}
	if res.deleted {
		return RemoteRecord{Deleted: true, Version: formatVersion(res.version)}, nil
	}

	return RemoteRecord{Payload: res.payload, Version: formatVersion(res.version)}, nil
}

// Ping implements [RemoteEndpoint].
func (f *FakeRemote) Ping(_ context.Context) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return 0, fmt.Errorf("%w: fake remote offline", ErrTransientNetwork)
	}
	return f.latency, nil
}

func resourceKey(resourceType, id string) string {
	return resourceType + "/" + id
}

func formatVersion(v int64) string {
	return `W/"` + strconv.FormatInt(v, 10) + `"`
}
