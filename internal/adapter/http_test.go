// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop-health/medsync/internal/config"
	"github.com/careloop-health/medsync/internal/logger"
)

func newTestRemote(t *testing.T, serverURL string) *httpRemote {
	t.Helper()
	cfg := config.Remote{BaseURL: serverURL, Token: "test-token", RequestTimeout: 5 * time.Second}

	r, err := NewHTTPRemote(cfg, logger.Nop())
	require.NoError(t, err)
	return r.(*httpRemote)
}

func TestNewHTTPRemote_InvalidBaseURL(t *testing.T) {
	_, err := NewHTTPRemote(config.Remote{BaseURL: ""}, logger.Nop())
	require.Error(t, err)
}

// ── Create ──────────────────────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/Observation/obs-1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "*", r.Header.Get("If-None-Match"))

		w.Header().Set("ETag", `W/"1"`)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	version, err := a.Create(context.Background(), "Observation", "obs-1", []byte(`{"value":120}`))

	require.NoError(t, err)
	assert.Equal(t, `W/"1"`, version)
}

func TestCreate_MissingETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	_, err := a.Create(context.Background(), "Observation", "obs-1", []byte(`{}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanentRejection)
}

// ── Update ──────────────────────────────────────────────────────────────────

func TestUpdate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, `W/"3"`, r.Header.Get("If-Match"))

		w.Header().Set("ETag", `W/"4"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	version, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"3"`)

	require.NoError(t, err)
	assert.Equal(t, `W/"4"`, version)
}

func TestUpdate_StaleVersion(t *testing.T) {
	for _, status := range []int{http.StatusConflict, http.StatusPreconditionFailed} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("version mismatch"))
		}))

		a := newTestRemote(t, srv.URL)
		_, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"1"`)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrVersionConflict, "status %d", status)
		srv.Close()
	}
}

func TestUpdate_ServerError_IsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	_, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"1"`)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransientNetwork)
}

func TestUpdate_ConnectionRefused_IsTransient(t *testing.T) {
	a := newTestRemote(t, "http://127.0.0.1:1") // nothing listens here

	_, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"1"`)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransientNetwork)
}

func TestUpdate_SchemaRejection_IsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("unknown field"))
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	_, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"1"`)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanentRejection)
	assert.NotErrorIs(t, err, ErrTransientNetwork)
}

func TestUpdate_Unauthorized_IsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	_, err := a.Update(context.Background(), "Observation", "obs-1", []byte(`{}`), `W/"1"`)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, ErrPermanentRejection)
}

// ── Delete ──────────────────────────────────────────────────────────────────

func TestDelete_AbsentIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	err := a.Delete(context.Background(), "Observation", "obs-1", `W/"2"`)
	require.NoError(t, err)
}

func TestDelete_StaleVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	err := a.Delete(context.Background(), "Observation", "obs-1", `W/"2"`)
	require.ErrorIs(t, err, ErrVersionConflict)
}

// ── Fetch ───────────────────────────────────────────────────────────────────

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("ETag", `W/"7"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"value":120}`))
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	got, err := a.Fetch(context.Background(), "Observation", "obs-1")

	require.NoError(t, err)
	assert.Equal(t, `W/"7"`, got.Version)
	assert.False(t, got.Deleted)
	assert.JSONEq(t, `{"value":120}`, string(got.Payload))
}

func TestFetch_Gone_ReportsDeleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `W/"8"`)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	got, err := a.Fetch(context.Background(), "Observation", "obs-1")

	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, `W/"8"`, got.Version)
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	_, err := a.Fetch(context.Background(), "Observation", "obs-1")
	require.ErrorIs(t, err, ErrNotFound)
}

// ── Ping ────────────────────────────────────────────────────────────────────

func TestPing_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestRemote(t, srv.URL)
	rtt, err := a.Ping(context.Background())

	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

func TestPing_ServerDown(t *testing.T) {
	a := newTestRemote(t, "http://127.0.0.1:1")

	_, err := a.Ping(context.Background())
	require.ErrorIs(t, err, ErrTransientNetwork)
}
