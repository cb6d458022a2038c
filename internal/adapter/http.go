// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/careloop-health/medsync/internal/config"
	"github.com/careloop-health/medsync/internal/logger"
)

type httpRemote struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPRemote constructs an HTTP/REST implementation of [RemoteEndpoint].
// It normalises and validates the base URL from cfg.BaseURL and configures
// the underlying client with the resolved base URL and request timeout.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid
// URL.
func NewHTTPRemote(cfg config.Remote, log *logger.Logger) (RemoteEndpoint, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	remote := &httpRemote{client: cli, logger: log}
	remote.SetToken(cfg.Token)
	return remote, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [RemoteEndpoint]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests.
func (h *httpRemote) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [RemoteEndpoint].
func (h *httpRemote) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Create implements [RemoteEndpoint]. It PUTs the payload to
// PUT /{resourceType}/{id} and reads the new version token from the ETag
// response header. A connection-level failure maps to [ErrTransientNetwork].
func (h *httpRemote) Create(ctx context.Context, resourceType, id string, payload json.RawMessage) (string, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("If-None-Match", "*").
		SetBody(payload).
		Put(resourcePath(resourceType, id))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrTransientNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return versionFromResponse(resp)
}

// Update implements [RemoteEndpoint]. It PUTs the payload to
// PUT /{resourceType}/{id} with an If-Match precondition carrying
// baseVersion, so a stale base surfaces as [ErrVersionConflict].
func (h *httpRemote) Update(ctx context.Context, resourceType, id string, payload json.RawMessage, baseVersion string) (string, error) {
	req := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if baseVersion != "" {
		req.SetHeader("If-Match", baseVersion)
	}

	resp, err := req.Put(resourcePath(resourceType, id))
	if err != nil {
		return "", fmt.Errorf("%w: update request: %w", ErrTransientNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return versionFromResponse(resp)
}

// Delete implements [RemoteEndpoint]. It sends
// DELETE /{resourceType}/{id} with an If-Match precondition. A 404 from the
// server is treated as success: the resource is gone either way.
func (h *httpRemote) Delete(ctx context.Context, resourceType, id, baseVersion string) error {
	req := h.authedRequest(ctx)
	if baseVersion != "" {
		req.SetHeader("If-Match", baseVersion)
	}

	resp, err := req.Delete(resourcePath(resourceType, id))
	if err != nil {
		return fmt.Errorf("%w: delete request: %w", ErrTransientNetwork, err)
	}
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusGone {
		return nil
	}

	return mapHTTPError(resp)
}

// Fetch implements [RemoteEndpoint]. It GETs the server's current copy from
// GET /{resourceType}/{id}. A 410 Gone response reports Deleted instead of
// an error so the caller can classify a delete divergence.
func (h *httpRemote) Fetch(ctx context.Context, resourceType, id string) (RemoteRecord, error) {
	resp, err := h.authedRequest(ctx).Get(resourcePath(resourceType, id))
	if err != nil {
		return RemoteRecord{}, fmt.Errorf("%w: fetch request: %w", ErrTransientNetwork, err)
	}
	if resp.StatusCode() == http.StatusGone {
		return RemoteRecord{Deleted: true, Version: resp.Header().Get("ETag")}, nil
	}
	if err = mapHTTPError(resp); err != nil {
		return RemoteRecord{}, err
	}

	return RemoteRecord{
		Payload: json.RawMessage(resp.Body()),
		Version: resp.Header().Get("ETag"),
	}, nil
}

// Ping implements [RemoteEndpoint]. It sends a HEAD request to the server
// root and reports the elapsed round-trip time. Any non-5xx response counts
// as reachable.
func (h *httpRemote) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	resp, err := h.client.R().SetContext(ctx).Head("/")
	if err != nil {
		return 0, fmt.Errorf("%w: ping request: %w", ErrTransientNetwork, err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return 0, fmt.Errorf("%w: ping http %d", ErrTransientNetwork, resp.StatusCode())
	}
	return time.Since(start), nil
}

func (h *httpRemote) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func resourcePath(resourceType, id string) string {
	return "/" + url.PathEscape(resourceType) + "/" + url.PathEscape(id)
}

func versionFromResponse(resp *resty.Response) (string, error) {
	version := resp.Header().Get("ETag")
	if version == "" {
		return "", fmt.Errorf("%w: response missing ETag version", ErrPermanentRejection)
	}
	return version, nil
}
