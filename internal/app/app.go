package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lcalzada-xor/switchmap/internal/adapters/device"
	"github.com/lcalzada-xor/switchmap/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/switchmap/internal/adapters/web/server"
	"github.com/lcalzada-xor/switchmap/internal/config"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
	"github.com/lcalzada-xor/switchmap/internal/core/services/resolver"
	"github.com/lcalzada-xor/switchmap/internal/core/services/snapshot"
	"github.com/lcalzada-xor/switchmap/internal/core/services/topology"
	"github.com/lcalzada-xor/switchmap/internal/core/services/tracer"
	"github.com/lcalzada-xor/switchmap/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config    *config.Config
	Inventory *storage.SQLiteAdapter
	Store     *topology.Store
	Snapshot  *snapshot.Service
	Resolver  *resolver.Resolver
	WebServer *webserver.Server

	log *slog.Logger
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	level := slog.LevelInfo
	if app.Config.Debug {
		level = slog.LevelDebug
	}
	app.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(app.log)

	inventory, err := app.initStorage()
	if err != nil {
		return err
	}
	app.Inventory = inventory

	// 2. Device access: SSH CLI first, SNMP when the CLI is unreachable.
	dialer := device.NewSSHDialer(app.Config.DeviceTimeout)
	groups := device.GroupLookup(inventory.Group)
	cli := device.NewCLIAdapter(dialer, groups, app.log)
	snmp := device.NewSNMPAdapter(app.Config.SNMPCommunity, app.Config.SNMPPort, app.Config.DeviceTimeout)
	poller := device.NewFallbackAdapter(cli, snmp, app.log)

	// 3. Topology graph and offline snapshot
	app.Store = topology.NewStore(inventory, poller, clockwork.NewRealClock(), app.Config.PollConcurrency, app.log)
	if err := app.Store.Load(context.Background()); err != nil {
		return fmt.Errorf("failed to load topology from storage: %w", err)
	}

	app.Snapshot = snapshot.NewService(app.Store, inventory, clockwork.NewRealClock(), app.Config.SnapshotStaleAfter, app.log)

	// 4. Endpoint resolution chain
	liveTracer := device.NewFollowTrailTracer(dialer, groups, app.Store, app.log)
	strategies := []ports.ResolveStrategy{
		&resolver.LiveStrategy{Tracer: liveTracer},
		&resolver.GraphStrategy{Snapshot: app.Snapshot, Topology: app.Store},
		&resolver.SightingStrategy{Inventory: inventory, Topology: app.Store},
	}
	app.Resolver = resolver.New(strategies, inventory, app.Store, app.Config.ResolveTimeout, app.Config.CacheTTL, app.log)

	// 5. HTTP surface
	pathTracer := tracer.NewService(app.Store)
	jobs := topology.NewJobRunner(app.Store, app.log)
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Store, jobs, app.Snapshot, pathTracer, app.Resolver, inventory, app.Config.RebuildTimeout)

	return nil
}

func (app *Application) initStorage() (*storage.SQLiteAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init system storage: %w", err)
	}
	return store, nil
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting switchmap components...")

	// 1. Background rebuild loop
	if app.Config.RebuildInterval > 0 {
		go app.runRebuildLoop(ctx)
	}

	// 2. Web server
	errChan := make(chan error, 1)

	go func() {
		log.Printf("Web Server listening on %s", app.Config.Addr)
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("Switchmap ready. Press Ctrl+C to terminate.")

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}

	return app.cleanup()
}

// runRebuildLoop re-polls the whole fleet on a fixed interval and refreshes
// the offline snapshot after each successful pass.
func (app *Application) runRebuildLoop(ctx context.Context) {
	ticker := time.NewTicker(app.Config.RebuildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rebuildCtx, cancel := context.WithTimeout(ctx, app.Config.RebuildTimeout)
			if err := app.Store.Rebuild(rebuildCtx, ""); err != nil {
				slog.Error("Periodic rebuild failed", "error", err)
				cancel()
				continue
			}
			cancel()

			if _, err := app.Snapshot.Build(context.Background()); err != nil {
				slog.Error("Snapshot refresh failed", "error", err)
			}
		}
	}
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	if app.Inventory != nil {
		return app.Inventory.Close()
	}
	return nil
}
