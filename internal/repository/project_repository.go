package repository

import (
	"context"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
)

// ProjectRepository はプロジェクトと実績サマリの永続化インターフェース
type ProjectRepository interface {
	// GetByID は Actuals を含むプロジェクトを返す。存在しなければ ErrNotFound
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// CreateActuals は実績サマリを新規作成する。既に存在すれば ErrConflict
	CreateActuals(ctx context.Context, actuals *model.ProjectActuals) error
	// UpdateActuals は保存済みの version が expectedVersion と一致する場合のみ上書きし、
	// actuals.Version を進める。一致しなければ ErrConflict
	UpdateActuals(ctx context.Context, actuals *model.ProjectActuals, expectedVersion int64) error
	// ListIDsWithActuals は実績サマリを持つプロジェクト ID の一覧を返す
	ListIDsWithActuals(ctx context.Context) ([]string, error)
}
