package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapConstraintError は一意制約違反を ErrConflict に、外部キー違反
// （参照先プロジェクトが無い）を ErrNotFound に変換する
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return ErrConflict
	case foreignKeyViolation:
		return ErrNotFound
	}
	return err
}

// PgProjectRepository は ProjectRepository の PostgreSQL 実装
type PgProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPgProjectRepository は PgProjectRepository を生成する
func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

// GetByID は ID でプロジェクトを取得する。実績サマリがあれば合わせて読み込む。
// エントリのキャッシュは保存せず、再集計時にエントリストアから埋め直す。
func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	q := conn(ctx, r.pool)

	var p model.Project
	var estimate decimal.NullDecimal
	err := q.QueryRow(ctx,
		`SELECT id, name, estimate_total, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &estimate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if estimate.Valid {
		p.Estimate = &model.ProjectEstimate{TotalEstimate: estimate.Decimal}
	}

	a := model.NewProjectActuals("", p.ID, p.CreatedAt)
	var dailyLogs, changeOrders []byte
	err = q.QueryRow(ctx,
		`SELECT id, version, total_labor_cost, total_material_cost, total_subcontractor_cost,
		        total_actual_cost, variance, variance_percentage, daily_logs, change_orders, created_at, updated_at
		 FROM project_actuals WHERE project_id = $1`,
		id,
	).Scan(&a.ID, &a.Version, &a.TotalLaborCost, &a.TotalMaterialCost, &a.TotalSubcontractorCost,
		&a.TotalActualCost, &a.Variance, &a.VariancePercentage, &dailyLogs, &changeOrders, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(dailyLogs, &a.DailyLogs); err != nil {
		return nil, fmt.Errorf("daily_logs: %w", err)
	}
	if err := unmarshalJSONB(changeOrders, &a.ChangeOrders); err != nil {
		return nil, fmt.Errorf("change_orders: %w", err)
	}
	p.Actuals = a
	return &p, nil
}

// CreateActuals は実績サマリを作成する。既に存在すれば ErrConflict、プロジェクトが無ければ ErrNotFound
func (r *PgProjectRepository) CreateActuals(ctx context.Context, a *model.ProjectActuals) error {
	dailyLogs, changeOrders, err := marshalActualsLogs(a)
	if err != nil {
		return err
	}
	err = conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO project_actuals (id, project_id, version, total_labor_cost, total_material_cost,
		        total_subcontractor_cost, total_actual_cost, variance, variance_percentage,
		        daily_logs, change_orders, created_at, updated_at)
		 VALUES ($1, $2, 0, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 RETURNING version`,
		a.ID, a.ProjectID, a.TotalLaborCost, a.TotalMaterialCost, a.TotalSubcontractorCost,
		a.TotalActualCost, a.Variance, a.VariancePercentage, dailyLogs, changeOrders, a.CreatedAt,
	).Scan(&a.Version)
	return mapConstraintError(err)
}

// UpdateActuals は version が一致する場合のみ実績サマリを上書きする
func (r *PgProjectRepository) UpdateActuals(ctx context.Context, a *model.ProjectActuals, expectedVersion int64) error {
	dailyLogs, changeOrders, err := marshalActualsLogs(a)
	if err != nil {
		return err
	}
	var version int64
	err = conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE project_actuals
		 SET version = version + 1, total_labor_cost = $3, total_material_cost = $4,
		     total_subcontractor_cost = $5, total_actual_cost = $6, variance = $7,
		     variance_percentage = $8, daily_logs = $9, change_orders = $10, updated_at = $11
		 WHERE project_id = $1 AND version = $2
		 RETURNING version`,
		a.ProjectID, expectedVersion, a.TotalLaborCost, a.TotalMaterialCost, a.TotalSubcontractorCost,
		a.TotalActualCost, a.Variance, a.VariancePercentage, dailyLogs, changeOrders, a.UpdatedAt,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	a.Version = version
	return nil
}

// ListIDsWithActuals は実績サマリを持つプロジェクト ID を返す
func (r *PgProjectRepository) ListIDsWithActuals(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT project_id FROM project_actuals ORDER BY project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func marshalActualsLogs(a *model.ProjectActuals) (dailyLogs, changeOrders []byte, err error) {
	if dailyLogs, err = marshalJSONB(a.DailyLogs); err != nil {
		return nil, nil, fmt.Errorf("daily_logs: %w", err)
	}
	if changeOrders, err = marshalJSONB(a.ChangeOrders); err != nil {
		return nil, nil, fmt.Errorf("change_orders: %w", err)
	}
	return dailyLogs, changeOrders, nil
}

// marshalJSONB は nil スライスを空配列として書き込む
func marshalJSONB[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func unmarshalJSONB[T any](data []byte, dst *[]T) error {
	*dst = []T{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
