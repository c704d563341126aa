package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/config"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/logging"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   差分マイグレーションを適用
  status      適用済み / 未適用のマイグレーションを表示
  reset       全テーブルを DROP し、集約スキーマで再作成
  fresh       全テーブルを DROP し、全マイグレーションを順番に適用`)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("load config failed", "error", err)
	}
	logging.Setup(cfg.LogLevel)
	if cfg.StoreDriver != config.StorePostgres {
		logging.Fatal("migrations require STORE_DRIVER=postgres", "store_driver", cfg.StoreDriver)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	migrationDir := findMigrationDir()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		runIncremental(ctx, pool, migrationDir)
	case "status":
		runStatus(ctx, pool, migrationDir)
	case "reset":
		runDropAll(ctx, pool, migrationDir)
		runConsolidated(ctx, pool, migrationDir)
	case "fresh":
		runDropAll(ctx, pool, migrationDir)
		runIncremental(ctx, pool, migrationDir)
	default:
		usage()
	}
}

func findMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

// collectUpFiles は .up.sql ファイル名をソート済みで返す
func collectUpFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Fatal("read migrations dir failed", "error", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}

func ensureSchemaMigrations(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		logging.Fatal("create schema_migrations failed", "error", err)
	}
}

// ---------------------------------------------------------------------------
// (default) 差分マイグレーション
// ---------------------------------------------------------------------------
func runIncremental(ctx context.Context, pool *pgxpool.Pool, dir string) {
	ensureSchemaMigrations(ctx, pool)

	upFiles := collectUpFiles(dir)
	applied := 0
	for i, filename := range upFiles {
		name := strings.TrimSuffix(filename, ".up.sql")

		exists, err := isApplied(ctx, pool, name)
		if err != nil {
			logging.Fatal("read schema_migrations failed", "migration", name, "error", err)
		}
		if exists {
			continue
		}

		sql, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			logging.Fatal("read migration failed", "migration", name, "error", err)
		}
		if err := applyMigration(ctx, pool, name, string(sql)); err != nil {
			logging.Fatal("migration failed", "migration", name, "error", err)
		}
		applied++
		slog.Info("migration completed", "number", i+1, "migration", name)
	}

	if applied == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", applied)
	}
}

// isApplied は name が schema_migrations に記録済みかを返す
func isApplied(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}

// applyMigration は SQL の実行と schema_migrations への記録を1トランザクションで行う
func applyMigration(ctx context.Context, pool *pgxpool.Pool, name, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit(ctx)
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------
func runStatus(ctx context.Context, pool *pgxpool.Pool, dir string) {
	ensureSchemaMigrations(ctx, pool)

	pending := 0
	for _, filename := range collectUpFiles(dir) {
		name := strings.TrimSuffix(filename, ".up.sql")
		exists, err := isApplied(ctx, pool, name)
		if err != nil {
			logging.Fatal("read schema_migrations failed", "migration", name, "error", err)
		}
		if !exists {
			pending++
		}
		slog.Info("migration", "migration", name, "applied", exists)
	}
	slog.Info("migration status", "pending", pending)
}

// ---------------------------------------------------------------------------
// 全テーブル DROP
// ---------------------------------------------------------------------------
func runDropAll(ctx context.Context, pool *pgxpool.Pool, dir string) {
	slog.Info("dropping all tables")
	sql, err := os.ReadFile(filepath.Join(dir, "000_drop_all.sql"))
	if err != nil {
		logging.Fatal("read 000_drop_all.sql failed", "error", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("drop all failed", "error", err)
	}
	slog.Info("all tables dropped")
}

// ---------------------------------------------------------------------------
// 集約スキーマで再作成
// ---------------------------------------------------------------------------
func runConsolidated(ctx context.Context, pool *pgxpool.Pool, dir string) {
	slog.Info("applying consolidated schema")
	sql, err := os.ReadFile(filepath.Join(dir, "000_consolidated.sql"))
	if err != nil {
		logging.Fatal("read 000_consolidated.sql failed", "error", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("consolidated apply failed", "error", err)
	}

	// 全マイグレーションを適用済みとして記録
	ensureSchemaMigrations(ctx, pool)
	upFiles := collectUpFiles(dir)
	for _, filename := range upFiles {
		name := strings.TrimSuffix(filename, ".up.sql")
		if _, err := pool.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name); err != nil {
			logging.Fatal("record migration failed", "migration", name, "error", err)
		}
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(upFiles))
}
