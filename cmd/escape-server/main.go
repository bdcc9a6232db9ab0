// Package main is the entry point for the escape simulation server.
// It only handles dependency injection and server initialization.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/network"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/config"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
	"github.com/MRamiBalles/JailbreakIdle/internal/save"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	appLogger := logger.NewLogger()
	if err := run(*configPath, appLogger); err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configPath string, appLogger *logger.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Infof("Opening %s database...", cfg.Database.Dialect)
	db, err := storage.Open(ctx, cfg.Database, cfg.Tuning)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.Get()
	saves := storage.NewSaveRepository(db)
	messages := storage.NewMessageRepository(db)

	appLogger.Info("Bootstrapping message log...")
	eventLog := events.NewEventLog(&meteredPersister{
		next:    storage.NewEventPersister(messages, cfg.Save.Slot),
		metrics: m,
	})
	eventLog.OnPersistError(func(err error) {
		appLogger.Error("message write-through failed: " + err.Error())
	})
	defer eventLog.Close()

	eng := engine.New(engine.Options{
		Seed:    cfg.Seed,
		Log:     appLogger,
		Events:  eventLog,
		Metrics: m,
		Paused:  cfg.Sim.StartPaused,
	})
	restore(ctx, eng, saves, cfg.Save, appLogger)

	simCtx, stopSim := context.WithCancel(context.Background())
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		eng.Run(simCtx, cfg.Sim.TickInterval)
	}()
	// The message log must outlive the last tick.
	defer func() {
		stopSim()
		<-simDone
	}()

	autosaver := engine.NewAutosaver(eng, &repoSink{repo: saves}, cfg.Save.Slot, cfg.Save.SnapshotDir, cfg.Save.SnapshotKeep)
	autosaveDone := make(chan struct{})
	if cfg.Save.AutosaveInterval > 0 {
		go func() {
			defer close(autosaveDone)
			autosaver.Run(ctx, cfg.Save.AutosaveInterval)
		}()
	} else {
		close(autosaveDone)
	}

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(eng, appLogger, m, cfg.Tuning)
	go hub.Run(ctx)
	hub.StartPoller(ctx, 200*time.Millisecond)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: newRouter(routerDeps{
			engine:    eng,
			hub:       hub,
			saves:     saves,
			recaps:    storage.NewReconstructor(messages),
			autosaver: autosaver,
			slot:      cfg.Save.Slot,
			metrics:   m,
			logger:    appLogger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Infof("HTTP API & WS server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-autosaveDone
			return err
		}
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown: " + err.Error())
	}
	<-autosaveDone
	return nil
}

// restore loads the newest stored save, falling back to the newest
// snapshot file. A fresh game is kept when neither is usable.
func restore(ctx context.Context, eng *engine.Engine, saves storage.SaveRepository, cfg config.Save, appLogger *logger.Logger) {
	rec, err := saves.Latest(ctx, cfg.Slot)
	switch {
	case err == nil:
		if err := eng.Import(rec.Data); err == nil {
			appLogger.Infof("Restored slot %q revision %s", cfg.Slot, rec.Revision)
			return
		}
		appLogger.Warn("stored save is invalid, trying snapshots")
	case errors.Is(err, storage.ErrNoSave):
	default:
		appLogger.Error("load save: " + err.Error())
	}

	if cfg.SnapshotDir == "" {
		return
	}
	path, err := save.LatestSnapshot(cfg.SnapshotDir, cfg.Slot)
	if err != nil {
		return
	}
	header, encoded, err := save.ReadSnapshot(path)
	if err != nil {
		appLogger.Error("read snapshot: " + err.Error())
		return
	}
	if err := eng.Import(encoded); err != nil {
		appLogger.Error("snapshot is invalid: " + err.Error())
		return
	}
	appLogger.Infof("Restored slot %q from snapshot %s", cfg.Slot, header.Revision)
}
