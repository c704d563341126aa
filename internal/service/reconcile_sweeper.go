package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
	"github.com/robfig/cron/v3"
)

// SweepResult は1回の再集計スイープの結果
type SweepResult struct {
	Reconciled int
	Failed     int
}

// ReconcileSweeper は実績サマリを持つ全プロジェクトを定期的に再集計する。
// インポータ等の別経路で書かれたエントリや、呼び出し側のタイムアウトで
// 再集計されなかったサマリを修復する。
type ReconcileSweeper struct {
	projects repository.ProjectRepository
	actuals  ActualsService
	cron     *cron.Cron
}

// NewReconcileSweeper は ReconcileSweeper を生成する
func NewReconcileSweeper(projects repository.ProjectRepository, actuals ActualsService) *ReconcileSweeper {
	return &ReconcileSweeper{
		projects: projects,
		actuals:  actuals,
		cron:     cron.New(),
	}
}

// Sweep は全プロジェクトを1回再集計する。個別の失敗はログに残して続行する
func (s *ReconcileSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	ids, err := s.projects.ListIDsWithActuals(ctx)
	if err != nil {
		return res, storeErr("list projects with actuals", err)
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if _, err := s.actuals.Recompute(ctx, id); err != nil {
			res.Failed++
			slog.Error("reconcile sweep failed", "project_id", id, "error", err)
			continue
		}
		res.Reconciled++
	}
	return res, nil
}

// Start は schedule（cron 式または "@every 15m"）でスイープを開始する。
// 各スイープは baseCtx から timeout 付きの ctx を派生させる。
func (s *ReconcileSweeper) Start(baseCtx context.Context, schedule string, timeout time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(baseCtx, timeout)
		defer cancel()

		start := time.Now()
		res, err := s.Sweep(ctx)
		if err != nil {
			slog.Error("reconcile sweep aborted", "error", err, "reconciled", res.Reconciled, "failed", res.Failed)
			return
		}
		slog.Info("reconcile sweep completed",
			"reconciled", res.Reconciled,
			"failed", res.Failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile sweep %q: %w", schedule, err)
	}
	s.cron.Start()
	slog.Info("reconcile sweep scheduled", "schedule", schedule)
	return nil
}

// Stop は新しいスイープの開始を止め、実行中のスイープの完了を待つ
func (s *ReconcileSweeper) Stop() {
	<-s.cron.Stop().Done()
}
