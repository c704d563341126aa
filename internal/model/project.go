package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project は外部システムが所有するプロジェクト。エンジンは Estimate を読み、Actuals を読み書きする。
type Project struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Estimate  *ProjectEstimate `json:"estimate,omitempty"`
	Actuals   *ProjectActuals  `json:"actuals,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProjectEstimate holds the separately maintained estimate total.
type ProjectEstimate struct {
	TotalEstimate decimal.Decimal `json:"total_estimate"`
}

// EstimatedCost returns the project's estimate total, or zero without an estimate.
func EstimatedCost(p *Project) decimal.Decimal {
	if p == nil || p.Estimate == nil {
		return decimal.Zero
	}
	return p.Estimate.TotalEstimate
}

// ProjectActuals is the reconciled summary of a project's real costs.
// The entry slices are a read cache of the entry stores as of the last
// recompute, never the source of truth.
type ProjectActuals struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	// Version increments on every successful write and guards conditional updates.
	Version int64 `json:"version"`

	LaborEntries         []*LaborEntry         `json:"labor_entries"`
	MaterialEntries      []*MaterialEntry      `json:"material_entries"`
	SubcontractorEntries []*SubcontractorEntry `json:"subcontractor_entries"`
	DailyLogs            []DailyLog            `json:"daily_logs"`
	ChangeOrders         []ChangeOrder         `json:"change_orders"`

	TotalLaborCost         decimal.Decimal `json:"total_labor_cost"`
	TotalMaterialCost      decimal.Decimal `json:"total_material_cost"`
	TotalSubcontractorCost decimal.Decimal `json:"total_subcontractor_cost"`
	TotalActualCost        decimal.Decimal `json:"total_actual_cost"`
	Variance               decimal.Decimal `json:"variance"`
	VariancePercentage     decimal.Decimal `json:"variance_percentage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProjectActuals returns a zero-valued summary for projectID.
func NewProjectActuals(id, projectID string, now time.Time) *ProjectActuals {
	return &ProjectActuals{
		ID:                   id,
		ProjectID:            projectID,
		LaborEntries:         []*LaborEntry{},
		MaterialEntries:      []*MaterialEntry{},
		SubcontractorEntries: []*SubcontractorEntry{},
		DailyLogs:            []DailyLog{},
		ChangeOrders:         []ChangeOrder{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// DailyLog は現場日報。エンジンは変更しない。
type DailyLog struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Weather string    `json:"weather,omitempty"`
	Notes   string    `json:"notes"`
}

// ChangeOrder は変更指示。エンジンは変更しない。
type ChangeOrder struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	Date   time.Time       `json:"date"`
}
