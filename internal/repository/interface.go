package repository

import (
	"context"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// Transactor は fn を1トランザクション内で実行する。
// fn に渡される ctx で呼ばれたリポジトリ操作はそのトランザクションに参加し、
// fn がエラーを返すとすべて取り消される。
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LaborEntryRepository は労務実績の永続化インターフェース
type LaborEntryRepository interface {
	Create(ctx context.Context, entry *model.LaborEntry) error
	ListByProjectID(ctx context.Context, projectID string) ([]*model.LaborEntry, error)
}

// MaterialEntryRepository は資材実績の永続化インターフェース
type MaterialEntryRepository interface {
	Create(ctx context.Context, entry *model.MaterialEntry) error
	ListByProjectID(ctx context.Context, projectID string) ([]*model.MaterialEntry, error)
}

// SubcontractorEntryRepository は下請実績の永続化インターフェース
type SubcontractorEntryRepository interface {
	Create(ctx context.Context, entry *model.SubcontractorEntry) error
	ListByProjectID(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error)
}
