// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CareLoop Health

// Package agent wires the medsync components together: config, store,
// vault, remote adapter, sync engine, background workers, and the status
// endpoint. It owns startup ordering and graceful shutdown.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careloop-health/medsync/internal/adapter"
	"github.com/careloop-health/medsync/internal/config"
	"github.com/careloop-health/medsync/internal/crypto"
	handler "github.com/careloop-health/medsync/internal/handler/http"
	"github.com/careloop-health/medsync/internal/logger"
	"github.com/careloop-health/medsync/internal/netmon"
	"github.com/careloop-health/medsync/internal/queue"
	"github.com/careloop-health/medsync/internal/resolver"
	"github.com/careloop-health/medsync/internal/service"
	"github.com/careloop-health/medsync/internal/store"
	"github.com/careloop-health/medsync/internal/workers"
	"github.com/careloop-health/medsync/migrations"
	"github.com/careloop-health/medsync/models"
)

// App is the assembled agent.
type App struct {
	cfg    *config.AgentConfig
	logger *logger.Logger

	db           *store.DB
	engine       service.SyncEngine
	workers      *workers.Workers
	statusServer *http.Server
}

// NewApp builds the full component graph. The vault is provisioned on
// first start and unlocked from the persisted wrapped keys on every start
// after that.
func NewApp(cfg *config.AgentConfig, log *logger.Logger) (*App, error) {
	ctx := context.Background()

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	if err := migrations.Migrate(db.DB); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	vault, err := openVault(ctx, db, cfg.App.MasterPassword, log)
	if err != nil {
		return nil, err
	}

	audit := store.NewAuditLog(db, log)
	policy := retentionPolicy(cfg.Retention, log)
	secureStore := store.NewSecureStore(db, vault, policy, audit, cfg.App.UserID, log)
	conflicts := store.NewConflictRepository(db, log)

	remote, err := newRemote(cfg.Remote, log)
	if err != nil {
		return nil, err
	}

	retryQueue := queue.NewRetryQueue(queue.Config{
		MaxRetries:     cfg.Sync.MaxRetries,
		InitialBackoff: cfg.Sync.InitialBackoff,
		Multiplier:     cfg.Sync.BackoffMultiplier,
		MaxBackoff:     cfg.Sync.MaxBackoff,
	}, log)

	engine := service.NewSyncEngine(
		secureStore, conflicts, audit, retryQueue, remote,
		resolver.DefaultPolicy(), cfg.App.UserID, log,
	)

	monitor := netmon.NewMonitor(remote, log)

	all := workers.NewWorkers(
		workers.NewNetworkDispatcher(monitor, engine, log),
		workers.NewRetryWorker(engine, cfg.Sync.RetryCheckInterval, log),
		workers.NewPurgeWorker(secureStore, cfg.Sync.PurgeInterval, log),
		workers.NewProbeWorker(monitor, cfg.Sync.ProbeInterval, log),
	)

	app := &App{
		cfg:     cfg,
		logger:  log,
		db:      db,
		engine:  engine,
		workers: all,
	}

	if cfg.Status.HTTPAddress != "" {
		h := handler.NewHandler(engine, conflicts, audit, log)
		app.statusServer = &http.Server{
			Addr:    cfg.Status.HTTPAddress,
			Handler: h.Init(),
		}
	}

	return app, nil
}

// Run rebuilds the retry queue from the store, starts the background
// workers and status server, and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.engine.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild retry queue: %w", err)
	}

	a.warnOnExpiringToken()

	a.workers.Start(ctx)

	if a.statusServer != nil {
		go func() {
			a.logger.Info().Str("address", a.statusServer.Addr).Msg("status endpoint listening")
			if err := a.statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	a.logger.Info().Msg("medsync agent running")
	<-ctx.Done()

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("shutting down")

	a.workers.Stop()

	if a.statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.statusServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("status server shutdown")
		}
	}

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close local store: %w", err)
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// openVault loads the persisted key hierarchy and unlocks it with the
// master password, provisioning fresh keys on the very first start.
func openVault(ctx context.Context, db *store.DB, masterPassword string, log *logger.Logger) (crypto.Vault, error) {
	keys := store.NewKeyRepository(db, log)
	keychain := crypto.NewKeyChainService()

	salt, err := keys.LoadSalt(ctx)
	switch {
	case errors.Is(err, store.ErrKeysNotProvisioned):
		return provisionVault(ctx, keys, keychain, masterPassword, log)
	case err != nil:
		return nil, fmt.Errorf("load key salt: %w", err)
	}

	wrapped, err := keys.LoadWrappedDEKs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wrapped keys: %w", err)
	}

	vault, err := crypto.UnlockVault(keychain, masterPassword, salt, wrapped)
	if err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}

	log.Info().Msg("vault unlocked")
	return vault, nil
}

func provisionVault(ctx context.Context, keys store.KeyRepository, keychain crypto.KeyChainService, masterPassword string, log *logger.Logger) (crypto.Vault, error) {
	salt, err := keychain.GenerateEncryptionSalt()
	if err != nil {
		return nil, fmt.Errorf("generate key salt: %w", err)
	}

	plain, wrapped, err := crypto.ProvisionDEKs(keychain, masterPassword, salt)
	if err != nil {
		return nil, fmt.Errorf("provision keys: %w", err)
	}

	if err := keys.SaveSalt(ctx, salt); err != nil {
		return nil, fmt.Errorf("persist key salt: %w", err)
	}
	if err := keys.SaveWrappedDEKs(ctx, wrapped); err != nil {
		return nil, fmt.Errorf("persist wrapped keys: %w", err)
	}

	vault := crypto.NewVault()
	for classification, dek := range plain {
		if err := vault.InstallDEK(classification, dek); err != nil {
			return nil, fmt.Errorf("install %s key: %w", classification, err)
		}
	}

	log.Info().Msg("vault provisioned")
	return vault, nil
}

func newRemote(cfg config.Remote, log *logger.Logger) (adapter.RemoteEndpoint, error) {
	if cfg.UseFake {
		log.Warn().Msg("using in-memory fake remote endpoint")
		return adapter.NewFakeRemote(), nil
	}
	return adapter.NewHTTPRemote(cfg, log)
}

// retentionPolicy builds the per-classification TTL rules. Purged records
// are logged by id only; payloads never reach the log.
func retentionPolicy(cfg config.Retention, log *logger.Logger) store.RetentionPolicy {
	logPurge := func(record models.StoredRecord) {
		log.Info().
			Str("record_id", record.ID).
			Str("classification", string(record.Classification)).
			Msg("record expired")
	}

	return store.RetentionPolicy{
		models.ClassificationPHI:       {TTL: cfg.PHITTL, OnPurge: logPurge},
		models.ClassificationSensitive: {TTL: cfg.SensitiveTTL, OnPurge: logPurge},
		models.ClassificationGeneral:   {TTL: cfg.GeneralTTL, OnPurge: logPurge},
	}
}

func (a *App) warnOnExpiringToken() {
	token := a.cfg.Remote.Token
	if token == "" || a.cfg.Remote.UseFake {
		return
	}

	expiry, err := adapter.TokenExpiry(token)
	if err != nil {
		a.logger.Debug().Err(err).Msg("remote token expiry not inspectable")
		return
	}

	switch remaining := time.Until(expiry); {
	case remaining <= 0:
		a.logger.Warn().Time("expired_at", expiry).Msg("remote token already expired, sync will fail until it is rotated")
	case remaining < 24*time.Hour:
		a.logger.Warn().Time("expires_at", expiry).Msg("remote token expires within a day")
	}
}
