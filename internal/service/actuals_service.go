package service

import (
	"context"
	"errors"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
)

// ErrStoreUnavailable wraps any persistence failure other than a missing record.
// The underlying store error stays reachable through errors.Is / errors.As.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrConcurrentUpdate is returned when the actuals record kept changing under a
// recompute for every allowed attempt.
var ErrConcurrentUpdate = errors.New("concurrent update conflict")

// ActualsService はプロジェクト実績（労務・資材・下請）の集計と見積差異を管理する。
// 実績サマリを変更する唯一の入口であり、エントリ追加ごとに全件再集計する。
type ActualsService interface {
	Initialize(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	AddLaborEntry(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error)
	AddMaterialEntry(ctx context.Context, projectID string, in model.MaterialEntryInput) (*model.MaterialEntry, error)
	AddSubcontractorEntry(ctx context.Context, projectID string, in model.SubcontractorEntryInput) (*model.SubcontractorEntry, error)
	Recompute(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	GetProjectActuals(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	GetProjectLaborEntries(ctx context.Context, projectID string) ([]*model.LaborEntry, error)
	GetProjectMaterialEntries(ctx context.Context, projectID string) ([]*model.MaterialEntry, error)
	GetProjectSubcontractorEntries(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error)
}
