package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/config"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/handler"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/logging"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository/memstore"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("load config failed", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, db, closeStores := openStores(ctx, cfg)
	defer closeStores()

	actualsService := service.NewActualsService(stores, service.WithMaxAttempts(cfg.Reconcile.MaxAttempts))

	// 定期再集計（RECONCILE_SWEEP_SCHEDULE が空なら無効）
	if cfg.Reconcile.SweepSchedule != "" {
		sweeper := service.NewReconcileSweeper(stores.Projects, actualsService)
		if err := sweeper.Start(ctx, cfg.Reconcile.SweepSchedule, cfg.Reconcile.SweepTimeout); err != nil {
			logging.Fatal("start reconcile sweep failed", "error", err)
		}
		defer sweeper.Stop()
	}

	h := handler.New(db, cfg.FrontendURL)
	actualsHandler := handler.NewActualsHandler(actualsService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	actualsHandler.Register(mux)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "store_driver", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// openStores は STORE_DRIVER に応じたストア群を返す
func openStores(ctx context.Context, cfg config.Config) (service.ActualsStores, repository.DB, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		store := memstore.New()
		if cfg.MemstoreSeedFile != "" {
			n, err := store.LoadSeedFile(cfg.MemstoreSeedFile)
			if err != nil {
				logging.Fatal("load memstore seed failed", "error", err, "path", cfg.MemstoreSeedFile)
			}
			slog.Info("memstore seeded", "projects", n)
		} else {
			slog.Warn("memory store started without MEMSTORE_SEED_FILE; no projects are registered")
		}
		stores := service.ActualsStores{
			Projects:       store,
			Labor:          store.LaborEntries(),
			Material:       store.MaterialEntries(),
			Subcontractors: store.SubcontractorEntries(),
			Tx:             store,
		}
		return stores, store, func() {}
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	stores := service.ActualsStores{
		Projects:       repository.NewPgProjectRepository(pool),
		Labor:          repository.NewPgLaborEntryRepository(pool),
		Material:       repository.NewPgMaterialEntryRepository(pool),
		Subcontractors: repository.NewPgSubcontractorEntryRepository(pool),
		Tx:             repository.NewPgTransactor(pool),
	}
	return stores, pool, pool.Close
}
