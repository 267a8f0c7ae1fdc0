package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tribeTrackerSync/internal/config"
	"tribeTrackerSync/internal/logger"
	"tribeTrackerSync/internal/metrics"
	"tribeTrackerSync/internal/remote"
	"tribeTrackerSync/internal/store"
)

// App wires the whole core together for the embedding host: file-backed
// store, dispatcher, sync engine and bootstrap controller. The host owns the
// UI and the auth provider; it hands sessions in through SetSession.
type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Store      *store.Adapter
	Dispatcher *Dispatcher
	Sync       *SyncEngine
	Bootstrap  *Bootstrap

	sessionMu sync.RWMutex
	session   Session
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New(cfg.LogLevel, cfg.LogFile)
	metrics.InitMetrics()

	kv, err := store.NewFileKV(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	app := &App{Config: cfg, Log: log}
	app.Store = store.NewAdapter(kv, log)
	app.Dispatcher = NewDispatcher(app.Store, log)

	var client *remote.Client
	if cfg.RemoteConfigured() {
		client = remote.NewClient(cfg.APIBaseURL)
	} else {
		log.Info("no remote configured, running local-only")
	}

	app.Sync = NewSyncEngine(app.Dispatcher, client, app.Store, app.Session, cfg.SyncEnabled, log)
	app.Bootstrap = NewBootstrap(app.Dispatcher, app.Store, client, app.Session, log)
	return app, nil
}

// Start loads local state and brings the sync engine up. Cold-start contract:
// local collections are in memory before Start returns; any remote refresh
// happens later, on an auth transition or manual refresh.
func (a *App) Start(ctx context.Context) {
	a.Bootstrap.LoadLocal(ctx)
	a.Sync.Start()
}

// Close stops the sync workers and flushes pending persistence writes.
func (a *App) Close() {
	a.Sync.Stop()
	a.Dispatcher.Close()
	a.Log.Sync()
}

// Session returns the current auth session; the zero value means signed out.
func (a *App) Session() Session {
	a.sessionMu.RLock()
	defer a.sessionMu.RUnlock()
	return a.session
}

// SetSession installs a new session from the auth provider and triggers the
// remote refresh on the signed-out to signed-in transition.
func (a *App) SetSession(ctx context.Context, sess Session) {
	a.sessionMu.Lock()
	prev := a.session
	a.session = sess
	a.sessionMu.Unlock()

	a.Bootstrap.OnAuthStateChanged(ctx, prev.UserID, sess)
}

// SignOut clears the session and the local profile. Collections stay on
// device; the profile is cleared, not deleted.
func (a *App) SignOut() {
	a.sessionMu.Lock()
	a.session = Session{}
	a.sessionMu.Unlock()

	a.Dispatcher.ClearProfile()
}
