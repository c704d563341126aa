package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
)

// PgLaborEntryRepository は LaborEntryRepository の PostgreSQL 実装
type PgLaborEntryRepository struct {
	pool *pgxpool.Pool
}

// NewPgLaborEntryRepository は PgLaborEntryRepository を生成する
func NewPgLaborEntryRepository(pool *pgxpool.Pool) *PgLaborEntryRepository {
	return &PgLaborEntryRepository{pool: pool}
}

// Create は労務実績を挿入する
func (r *PgLaborEntryRepository) Create(ctx context.Context, e *model.LaborEntry) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO labor_entries (id, project_id, trade_id, date, trade, description, total_hours, labor_rate, total_cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ProjectID, e.TradeID, e.Date, e.Trade, e.Description, e.TotalHours, e.LaborRate, e.TotalCost, e.CreatedAt,
	)
	return mapConstraintError(err)
}

// ListByProjectID はプロジェクトの労務実績を日付順に返す
func (r *PgLaborEntryRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.LaborEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, project_id, trade_id, date, trade, description, total_hours, labor_rate, total_cost, created_at
		 FROM labor_entries WHERE project_id = $1 ORDER BY date, created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.LaborEntry{}
	for rows.Next() {
		var e model.LaborEntry
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.TradeID, &e.Date, &e.Trade, &e.Description,
			&e.TotalHours, &e.LaborRate, &e.TotalCost, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// PgMaterialEntryRepository は MaterialEntryRepository の PostgreSQL 実装
type PgMaterialEntryRepository struct {
	pool *pgxpool.Pool
}

// NewPgMaterialEntryRepository は PgMaterialEntryRepository を生成する
func NewPgMaterialEntryRepository(pool *pgxpool.Pool) *PgMaterialEntryRepository {
	return &PgMaterialEntryRepository{pool: pool}
}

// Create は資材実績を挿入する
func (r *PgMaterialEntryRepository) Create(ctx context.Context, e *model.MaterialEntry) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO material_entries (id, project_id, trade_id, date, material_name, category, quantity, unit,
		        unit_cost, total_cost, vendor, invoice_number, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.ProjectID, e.TradeID, e.Date, e.MaterialName, e.Category, e.Quantity, e.Unit,
		e.UnitCost, e.TotalCost, e.Vendor, e.InvoiceNumber, e.CreatedAt,
	)
	return mapConstraintError(err)
}

// ListByProjectID はプロジェクトの資材実績を日付順に返す
func (r *PgMaterialEntryRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.MaterialEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, project_id, trade_id, date, material_name, category, quantity, unit,
		        unit_cost, total_cost, vendor, invoice_number, created_at
		 FROM material_entries WHERE project_id = $1 ORDER BY date, created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.MaterialEntry{}
	for rows.Next() {
		var e model.MaterialEntry
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.TradeID, &e.Date, &e.MaterialName, &e.Category, &e.Quantity, &e.Unit,
			&e.UnitCost, &e.TotalCost, &e.Vendor, &e.InvoiceNumber, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// PgSubcontractorEntryRepository は SubcontractorEntryRepository の PostgreSQL 実装
type PgSubcontractorEntryRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubcontractorEntryRepository は PgSubcontractorEntryRepository を生成する
func NewPgSubcontractorEntryRepository(pool *pgxpool.Pool) *PgSubcontractorEntryRepository {
	return &PgSubcontractorEntryRepository{pool: pool}
}

// Create は下請実績を挿入する。支払い履歴は JSONB で保存する
func (r *PgSubcontractorEntryRepository) Create(ctx context.Context, e *model.SubcontractorEntry) error {
	payments, err := marshalJSONB(e.Payments)
	if err != nil {
		return fmt.Errorf("payments: %w", err)
	}
	_, err = conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO subcontractor_entries (id, project_id, trade_id, sub_name, sub_company, sub_email, sub_phone,
		        trade, scope_of_work, contract_amount, payments, total_paid, balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.ProjectID, e.TradeID, e.Subcontractor.Name, e.Subcontractor.Company, e.Subcontractor.Email,
		e.Subcontractor.Phone, e.Trade, e.ScopeOfWork, e.ContractAmount, payments, e.TotalPaid, e.Balance, e.CreatedAt,
	)
	return mapConstraintError(err)
}

// ListByProjectID はプロジェクトの下請実績を作成順に返す
func (r *PgSubcontractorEntryRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, project_id, trade_id, sub_name, sub_company, sub_email, sub_phone,
		        trade, scope_of_work, contract_amount, payments, total_paid, balance, created_at
		 FROM subcontractor_entries WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.SubcontractorEntry{}
	for rows.Next() {
		var e model.SubcontractorEntry
		var payments []byte
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.TradeID, &e.Subcontractor.Name, &e.Subcontractor.Company,
			&e.Subcontractor.Email, &e.Subcontractor.Phone, &e.Trade, &e.ScopeOfWork,
			&e.ContractAmount, &payments, &e.TotalPaid, &e.Balance, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(payments, &e.Payments); err != nil {
			return nil, fmt.Errorf("payments: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
