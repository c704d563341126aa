package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
	"github.com/shopspring/decimal"
)

// DefaultMaxRecomputeAttempts は version 競合時の再集計試行回数の既定値
const DefaultMaxRecomputeAttempts = 3

// ActualsStores は ActualsService が依存するストア群
type ActualsStores struct {
	Projects       repository.ProjectRepository
	Labor          repository.LaborEntryRepository
	Material       repository.MaterialEntryRepository
	Subcontractors repository.SubcontractorEntryRepository
	Tx             repository.Transactor
}

// ActualsOption は ActualsServiceImpl の設定を変更する
type ActualsOption func(*ActualsServiceImpl)

// WithClock は CreatedAt / UpdatedAt に使う時計を差し替える
func WithClock(now func() time.Time) ActualsOption {
	return func(s *ActualsServiceImpl) { s.now = now }
}

// WithMaxAttempts は version 競合時の試行回数を設定する（1 未満は 1）
func WithMaxAttempts(n int) ActualsOption {
	return func(s *ActualsServiceImpl) {
		if n < 1 {
			n = 1
		}
		s.maxAttempts = n
	}
}

// ActualsServiceImpl は ActualsService の実装。
//
// 整合性は楽観的排他で担保する: 再集計は実績サマリ（version 付き）を読み、
// 次にエントリを全件読み、読んだ version を条件に書き込む。競合すれば読み直す。
// 同一プロセス内の呼び出しはプロジェクト単位のロックで直列化するため競合しない。
type ActualsServiceImpl struct {
	projects       repository.ProjectRepository
	labor          repository.LaborEntryRepository
	material       repository.MaterialEntryRepository
	subcontractors repository.SubcontractorEntryRepository
	tx             repository.Transactor

	locks       *keyedMutex
	now         func() time.Time
	newID       func() string
	maxAttempts int
}

// NewActualsService は ActualsServiceImpl を生成する（DI: 各ストアを注入）
func NewActualsService(stores ActualsStores, opts ...ActualsOption) ActualsService {
	s := &ActualsServiceImpl{
		projects:       stores.Projects,
		labor:          stores.Labor,
		material:       stores.Material,
		subcontractors: stores.Subcontractors,
		tx:             stores.Tx,
		locks:          newKeyedMutex(),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
		maxAttempts:    DefaultMaxRecomputeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize はプロジェクトの実績サマリを返す。未作成なら全項目ゼロで作成する（冪等）
func (s *ActualsServiceImpl) Initialize(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("get project "+projectID, err)
	}
	if p.Actuals != nil {
		return p.Actuals, nil
	}

	a := model.NewProjectActuals(s.newID(), projectID, s.now())
	err = s.projects.CreateActuals(ctx, a)
	if errors.Is(err, repository.ErrConflict) {
		// 同時に作成された側のレコードを返す
		p, err = s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, storeErr("get project "+projectID, err)
		}
		if p.Actuals == nil {
			return nil, fmt.Errorf("initialize actuals for %s: %w", projectID, ErrConcurrentUpdate)
		}
		return p.Actuals, nil
	}
	if err != nil {
		return nil, storeErr("create actuals for "+projectID, err)
	}
	slog.Info("project actuals initialized", "project_id", projectID, "actuals_id", a.ID)
	return a, nil
}

// AddLaborEntry は労務実績を登録し、実績サマリを再集計する
func (s *ActualsServiceImpl) AddLaborEntry(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error) {
	entry := &model.LaborEntry{
		ID:          s.newID(),
		ProjectID:   projectID,
		TradeID:     in.TradeID,
		Date:        in.Date,
		Trade:       in.Trade,
		Description: in.Description,
		TotalHours:  decimalOrZero(in.TotalHours),
		LaborRate:   decimalOrZero(in.LaborRate),
		TotalCost:   in.TotalCost,
		CreatedAt:   s.now(),
	}
	err := s.addEntry(ctx, projectID, "labor", func(ctx context.Context) error {
		return s.labor.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddMaterialEntry は資材実績を登録し、実績サマリを再集計する
func (s *ActualsServiceImpl) AddMaterialEntry(ctx context.Context, projectID string, in model.MaterialEntryInput) (*model.MaterialEntry, error) {
	entry := &model.MaterialEntry{
		ID:            s.newID(),
		ProjectID:     projectID,
		TradeID:       in.TradeID,
		Date:          in.Date,
		MaterialName:  in.MaterialName,
		Category:      in.Category,
		Quantity:      decimalOrZero(in.Quantity),
		Unit:          model.DefaultUnit(),
		UnitCost:      decimalOrZero(in.UnitCost),
		TotalCost:     in.TotalCost,
		Vendor:        stringOrEmpty(in.Vendor),
		InvoiceNumber: stringOrEmpty(in.InvoiceNumber),
		CreatedAt:     s.now(),
	}
	if in.Unit != nil && in.Unit.String() != "" {
		entry.Unit = *in.Unit
	}
	err := s.addEntry(ctx, projectID, "material", func(ctx context.Context) error {
		return s.material.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddSubcontractorEntry は下請実績を登録し、実績サマリを再集計する。
// TotalPaid と Balance は登録時点の値で確定し、Payments からは再計算しない。
func (s *ActualsServiceImpl) AddSubcontractorEntry(ctx context.Context, projectID string, in model.SubcontractorEntryInput) (*model.SubcontractorEntry, error) {
	company := stringOrEmpty(in.Company)
	if company == "" {
		company = in.SubcontractorName
	}
	entry := &model.SubcontractorEntry{
		ID:        s.newID(),
		ProjectID: projectID,
		TradeID:   in.TradeID,
		Subcontractor: model.SubcontractorInfo{
			Name:    in.SubcontractorName,
			Company: company,
			Email:   stringOrEmpty(in.Email),
			Phone:   stringOrEmpty(in.Phone),
		},
		Trade:          in.Trade,
		ScopeOfWork:    in.ScopeOfWork,
		ContractAmount: in.ContractAmount,
		Payments:       []model.SubcontractorPayment{},
		TotalPaid:      in.TotalPaid,
		Balance:        in.ContractAmount.Sub(in.TotalPaid),
		CreatedAt:      s.now(),
	}
	err := s.addEntry(ctx, projectID, "subcontractor", func(ctx context.Context) error {
		return s.subcontractors.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// addEntry は実績サマリを初期化したうえで、エントリ書き込みと再集計を
// 1トランザクションで行う。どちらかが失敗すればエントリも残らない。
func (s *ActualsServiceImpl) addEntry(ctx context.Context, projectID, kind string, create func(ctx context.Context) error) error {
	if _, err := s.Initialize(ctx, projectID); err != nil {
		return err
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := create(ctx); err != nil {
			return storeErr("create "+kind+" entry", err)
		}
		_, err := s.recompute(ctx, projectID)
		return err
	})
}

// Recompute はエントリを全件読み直して実績サマリを再構築する
func (s *ActualsServiceImpl) Recompute(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()
	return s.recompute(ctx, projectID)
}

// recompute は呼び出し側がプロジェクトのロックを保持している前提
func (s *ActualsServiceImpl) recompute(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		p, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, storeErr("get project "+projectID, err)
		}
		if p.Actuals == nil {
			return nil, fmt.Errorf("actuals for project %s: %w", projectID, repository.ErrNotFound)
		}

		labor, err := s.labor.ListByProjectID(ctx, projectID)
		if err != nil {
			return nil, storeErr("list labor entries", err)
		}
		material, err := s.material.ListByProjectID(ctx, projectID)
		if err != nil {
			return nil, storeErr("list material entries", err)
		}
		subs, err := s.subcontractors.ListByProjectID(ctx, projectID)
		if err != nil {
			return nil, storeErr("list subcontractor entries", err)
		}

		next := model.Reconcile(p.Actuals, model.EstimatedCost(p), labor, material, subs)
		next.UpdatedAt = s.now()

		err = s.projects.UpdateActuals(ctx, next, p.Actuals.Version)
		if err == nil {
			slog.Debug("project actuals recomputed",
				"project_id", projectID,
				"version", next.Version,
				"total_actual_cost", next.TotalActualCost.String(),
				"variance", next.Variance.String(),
			)
			return next, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, storeErr("update actuals for "+projectID, err)
		}
		slog.Warn("project actuals version conflict", "project_id", projectID, "attempt", attempt)
	}
	return nil, fmt.Errorf("recompute actuals for %s: %w", projectID, ErrConcurrentUpdate)
}

// GetProjectActuals は常に最新のエントリから再集計した実績サマリを返す。
// 未作成なら Initialize と同じく全項目ゼロで作成する。
func (s *ActualsServiceImpl) GetProjectActuals(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("get project "+projectID, err)
	}
	if p.Actuals == nil {
		return s.Initialize(ctx, projectID)
	}
	return s.Recompute(ctx, projectID)
}

// GetProjectLaborEntries はエントリストアをそのまま返す。プロジェクトの存在は確認しない
func (s *ActualsServiceImpl) GetProjectLaborEntries(ctx context.Context, projectID string) ([]*model.LaborEntry, error) {
	entries, err := s.labor.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, storeErr("list labor entries", err)
	}
	if entries == nil {
		entries = []*model.LaborEntry{}
	}
	return entries, nil
}

// GetProjectMaterialEntries はエントリストアをそのまま返す
func (s *ActualsServiceImpl) GetProjectMaterialEntries(ctx context.Context, projectID string) ([]*model.MaterialEntry, error) {
	entries, err := s.material.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, storeErr("list material entries", err)
	}
	if entries == nil {
		entries = []*model.MaterialEntry{}
	}
	return entries, nil
}

// GetProjectSubcontractorEntries はエントリストアをそのまま返す
func (s *ActualsServiceImpl) GetProjectSubcontractorEntries(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error) {
	entries, err := s.subcontractors.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, storeErr("list subcontractor entries", err)
	}
	if entries == nil {
		entries = []*model.SubcontractorEntry{}
	}
	return entries, nil
}

// storeErr は ErrNotFound をそのまま包み、それ以外を ErrStoreUnavailable として包む
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrConcurrentUpdate) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
