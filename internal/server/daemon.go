package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"bandstand/internal/archive"
	"bandstand/internal/config"
	"bandstand/internal/delegation"
	"bandstand/internal/logging"
	"bandstand/internal/notifications"
	"bandstand/internal/services/llm"
	"bandstand/internal/services/storacha"
	"bandstand/internal/social"
	"bandstand/internal/stage"
	"bandstand/internal/store"
	"bandstand/internal/verification"
)

// Daemon wires the domain services together, owns the HTTP API server and
// the archive syncer, and enforces single-instance execution via a file lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	contentStore *store.SQLite
	llmClient    *llm.Client
	bridge       *storacha.Client
	notifier     notifications.Service

	archive    *archive.Service
	engine     *verification.Engine
	board      *social.Board
	delegation *delegation.Service
	machine    *stage.Machine
	syncer     *archive.Syncer

	api      *apiServer
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	PID              int
	DataDir          string
	LockFilePath     string
	LLMConfigured    bool
	BridgeConfigured bool
	RemoteConnected  bool
	SpaceDID         string
	AssetCount       int
	DraftCount       int
	Stage            string
}

// New constructs a daemon with all services initialized but not started.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	contentStore, err := store.OpenSQLite(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	bridge := storacha.NewClient(storacha.Config{
		BaseURL:        cfg.Storage.BridgeURL,
		AuthToken:      cfg.Storage.AuthToken,
		RequestTimeout: time.Duration(cfg.Storage.RequestTimeoutSeconds) * time.Second,
	})
	notifier := notifications.NewService(cfg)

	archiveSvc := archive.NewService(archive.Config{
		Bridge:      bridge,
		Store:       contentStore,
		Notifier:    notifier,
		Logger:      logger,
		Email:       cfg.Storage.Email,
		Space:       cfg.Storage.Space,
		InitTimeout: time.Duration(cfg.Storage.InitTimeoutSeconds) * time.Second,
		SeedDemo:    cfg.Archive.SeedDemoAssets,
	})

	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		contentStore: contentStore,
		llmClient:    llmClient,
		bridge:       bridge,
		notifier:     notifier,
		archive:      archiveSvc,
		engine: verification.NewEngine(verification.Config{
			LLM:       llmClient,
			Store:     contentStore,
			Notifier:  notifier,
			Logger:    logger,
			Knowledge: cfg.KnowledgeContext(),
		}),
		board: social.NewBoard(social.Config{
			LLM:              llmClient,
			Store:            contentStore,
			Library:          archiveSvc,
			Notifier:         notifier,
			Logger:           logger,
			DefaultPlatforms: cfg.Social.DefaultPlatforms,
		}),
		delegation: delegation.NewService(delegation.Config{
			Store:  contentStore,
			Logger: logger,
		}),
		machine: stage.NewMachine(stage.Config{Logger: logger}),
	}
	d.syncer = archive.NewSyncer(archiveSvc, notifier, logger,
		time.Duration(cfg.Archive.SyncIntervalSeconds)*time.Second)

	d.lockPath = filepath.Join(cfg.Paths.DataDir, "bandstandd.lock")
	d.lock = flock.New(d.lockPath)

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		_ = contentStore.Close()
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the instance lock, hydrates the services, and brings up the
// API server and the archive syncer.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bandstand daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.archive.Initialize(runCtx); err != nil {
		d.releaseStart()
		return fmt.Errorf("initialize archive: %w", err)
	}
	if err := d.board.Load(runCtx); err != nil {
		d.releaseStart()
		return fmt.Errorf("load draft board: %w", err)
	}
	if d.cfg.Archive.SyncEnabled {
		d.syncer.Start(runCtx)
	}
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.syncer.Stop()
			d.releaseStart()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("bandstand daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop halts the API server and background work and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.syncer.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("bandstand daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.contentStore != nil {
		return d.contentStore.Close()
	}
	return nil
}

// Addr returns the API server's listen address once started.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		DataDir:          d.cfg.Paths.DataDir,
		LockFilePath:     d.lockPath,
		LLMConfigured:    d.llmClient.Configured(),
		BridgeConfigured: d.bridge.Configured(),
		RemoteConnected:  d.archive.Initialized(),
		SpaceDID:         d.archive.SpaceDID(),
		AssetCount:       len(d.archive.Assets()),
		DraftCount:       len(d.board.Drafts("", 0)),
		Stage:            d.machine.Snapshot().Stage,
	}
}
