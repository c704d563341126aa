package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/service"
	"github.com/shopspring/decimal"
)

// mockActualsService は ActualsService のモック
type mockActualsService struct {
	initializeFunc       func(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	addLaborFunc         func(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error)
	addMaterialFunc      func(ctx context.Context, projectID string, in model.MaterialEntryInput) (*model.MaterialEntry, error)
	addSubcontractorFunc func(ctx context.Context, projectID string, in model.SubcontractorEntryInput) (*model.SubcontractorEntry, error)
	recomputeFunc        func(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	getActualsFunc       func(ctx context.Context, projectID string) (*model.ProjectActuals, error)
	listLaborFunc        func(ctx context.Context, projectID string) ([]*model.LaborEntry, error)
	listMaterialFunc     func(ctx context.Context, projectID string) ([]*model.MaterialEntry, error)
	listSubcontractFunc  func(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error)
}

func (m *mockActualsService) Initialize(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	if m.initializeFunc != nil {
		return m.initializeFunc(ctx, projectID)
	}
	return &model.ProjectActuals{ProjectID: projectID}, nil
}

func (m *mockActualsService) AddLaborEntry(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error) {
	if m.addLaborFunc != nil {
		return m.addLaborFunc(ctx, projectID, in)
	}
	return &model.LaborEntry{ProjectID: projectID}, nil
}

func (m *mockActualsService) AddMaterialEntry(ctx context.Context, projectID string, in model.MaterialEntryInput) (*model.MaterialEntry, error) {
	if m.addMaterialFunc != nil {
		return m.addMaterialFunc(ctx, projectID, in)
	}
	return &model.MaterialEntry{ProjectID: projectID}, nil
}

func (m *mockActualsService) AddSubcontractorEntry(ctx context.Context, projectID string, in model.SubcontractorEntryInput) (*model.SubcontractorEntry, error) {
	if m.addSubcontractorFunc != nil {
		return m.addSubcontractorFunc(ctx, projectID, in)
	}
	return &model.SubcontractorEntry{ProjectID: projectID}, nil
}

func (m *mockActualsService) Recompute(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	if m.recomputeFunc != nil {
		return m.recomputeFunc(ctx, projectID)
	}
	return &model.ProjectActuals{ProjectID: projectID}, nil
}

func (m *mockActualsService) GetProjectActuals(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
	if m.getActualsFunc != nil {
		return m.getActualsFunc(ctx, projectID)
	}
	return &model.ProjectActuals{ProjectID: projectID}, nil
}

func (m *mockActualsService) GetProjectLaborEntries(ctx context.Context, projectID string) ([]*model.LaborEntry, error) {
	if m.listLaborFunc != nil {
		return m.listLaborFunc(ctx, projectID)
	}
	return []*model.LaborEntry{}, nil
}

func (m *mockActualsService) GetProjectMaterialEntries(ctx context.Context, projectID string) ([]*model.MaterialEntry, error) {
	if m.listMaterialFunc != nil {
		return m.listMaterialFunc(ctx, projectID)
	}
	return []*model.MaterialEntry{}, nil
}

func (m *mockActualsService) GetProjectSubcontractorEntries(ctx context.Context, projectID string) ([]*model.SubcontractorEntry, error) {
	if m.listSubcontractFunc != nil {
		return m.listSubcontractFunc(ctx, projectID)
	}
	return []*model.SubcontractorEntry{}, nil
}

func newActualsMux(svc service.ActualsService) *http.ServeMux {
	mux := http.NewServeMux()
	NewActualsHandler(svc).Register(mux)
	return mux
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body["error"]
}

func TestActualsHandler_Get(t *testing.T) {
	var gotID string
	mock := &mockActualsService{
		getActualsFunc: func(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
			gotID = projectID
			return &model.ProjectActuals{
				ID:              "a1",
				ProjectID:       projectID,
				TotalActualCost: decimal.RequireFromString("1200"),
				Variance:        decimal.RequireFromString("200"),
			}, nil
		},
	}

	req := httptest.NewRequest("GET", "/api/projects/p1/actuals", nil)
	rec := httptest.NewRecorder()
	newActualsMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "p1" {
		t.Errorf("expected project id p1, got %q", gotID)
	}
	var got model.ProjectActuals
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.TotalActualCost.Equal(decimal.RequireFromString("1200")) {
		t.Errorf("expected total_actual_cost 1200, got %s", got.TotalActualCost)
	}
	if got.ID != "a1" {
		t.Errorf("expected id a1, got %q", got.ID)
	}
}

func TestActualsHandler_InitializeAndRecompute(t *testing.T) {
	var calls []string
	mock := &mockActualsService{
		initializeFunc: func(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
			calls = append(calls, "initialize:"+projectID)
			return &model.ProjectActuals{ProjectID: projectID}, nil
		},
		recomputeFunc: func(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
			calls = append(calls, "recompute:"+projectID)
			return &model.ProjectActuals{ProjectID: projectID}, nil
		},
	}
	mux := newActualsMux(mock)

	for _, path := range []string{"/api/projects/p1/actuals/initialize", "/api/projects/p1/actuals/recompute"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
	if len(calls) != 2 || calls[0] != "initialize:p1" || calls[1] != "recompute:p1" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestActualsHandler_AddLabor(t *testing.T) {
	var got model.LaborEntryInput
	mock := &mockActualsService{
		addLaborFunc: func(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error) {
			got = in
			return &model.LaborEntry{ID: "e1", ProjectID: projectID, TotalCost: in.TotalCost, Trade: in.Trade}, nil
		},
	}

	body := `{"date":"2026-03-14T00:00:00Z","description":"framing","total_cost":"300.50","trade":"rough-framing","total_hours":8}`
	req := httptest.NewRequest("POST", "/api/projects/p1/labor-entries", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newActualsMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !got.TotalCost.Equal(decimal.RequireFromString("300.50")) {
		t.Errorf("expected total_cost 300.50, got %s", got.TotalCost)
	}
	if got.Trade.Kind != model.TradeRoughFraming {
		t.Errorf("expected trade rough-framing, got %q", got.Trade.Kind)
	}
	if got.TotalHours == nil || !got.TotalHours.Equal(decimal.NewFromInt(8)) {
		t.Errorf("expected total_hours 8, got %v", got.TotalHours)
	}
	if got.LaborRate != nil {
		t.Errorf("expected labor_rate to be omitted, got %v", got.LaborRate)
	}
}

func TestActualsHandler_AddMaterialCustomUnit(t *testing.T) {
	var got model.MaterialEntryInput
	mock := &mockActualsService{
		addMaterialFunc: func(ctx context.Context, projectID string, in model.MaterialEntryInput) (*model.MaterialEntry, error) {
			got = in
			return &model.MaterialEntry{ID: "m1", ProjectID: projectID}, nil
		},
	}

	body := `{"date":"2026-03-14T00:00:00Z","material_name":"Pavers","total_cost":"500","category":"Landscaping","unit":"pallet"}`
	req := httptest.NewRequest("POST", "/api/projects/p1/material-entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	newActualsMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !got.Category.IsCustom() || got.Category.String() != "Landscaping" {
		t.Errorf("expected custom category Landscaping, got %+v", got.Category)
	}
	if got.Unit == nil || got.Unit.String() != "pallet" {
		t.Errorf("expected unit pallet, got %v", got.Unit)
	}
}

func TestActualsHandler_AddSubcontractor(t *testing.T) {
	mock := &mockActualsService{
		addSubcontractorFunc: func(ctx context.Context, projectID string, in model.SubcontractorEntryInput) (*model.SubcontractorEntry, error) {
			return &model.SubcontractorEntry{
				ID:             "s1",
				ProjectID:      projectID,
				Subcontractor:  model.SubcontractorInfo{Name: in.SubcontractorName, Company: in.SubcontractorName},
				ContractAmount: in.ContractAmount,
				TotalPaid:      in.TotalPaid,
				Balance:        in.ContractAmount.Sub(in.TotalPaid),
				Payments:       []model.SubcontractorPayment{},
			}, nil
		},
	}

	body := `{"subcontractor_name":"Ace","scope_of_work":"rough-in","contract_amount":"800","total_paid":"500","trade":"plumbing"}`
	req := httptest.NewRequest("POST", "/api/projects/p1/subcontractor-entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	newActualsMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got model.SubcontractorEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected balance 300, got %s", got.Balance)
	}
}

func TestActualsHandler_AddInvalidJSON(t *testing.T) {
	called := false
	mock := &mockActualsService{
		addLaborFunc: func(ctx context.Context, projectID string, in model.LaborEntryInput) (*model.LaborEntry, error) {
			called = true
			return nil, nil
		},
	}

	req := httptest.NewRequest("POST", "/api/projects/p1/labor-entries", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	newActualsMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "invalid_json" {
		t.Errorf("expected error invalid_json, got %q", got)
	}
	if called {
		t.Error("service should not be called for an invalid body")
	}
}

func TestActualsHandler_ListEntries(t *testing.T) {
	mock := &mockActualsService{
		listLaborFunc: func(ctx context.Context, projectID string) ([]*model.LaborEntry, error) {
			return []*model.LaborEntry{{ID: "e1", ProjectID: projectID}, {ID: "e2", ProjectID: projectID}}, nil
		},
	}
	mux := newActualsMux(mock)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects/p1/labor-entries", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var labor struct {
		Entries []*model.LaborEntry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&labor); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(labor.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(labor.Entries))
	}

	// 未登録のプロジェクトでも空配列を返す
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects/unknown/material-entries", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"entries\":[]}\n" {
		t.Errorf("expected empty entries array, got %q", got)
	}
}

func TestActualsHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", fmt.Errorf("get project p1: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{"conflict", fmt.Errorf("recompute: %w", service.ErrConcurrentUpdate), http.StatusConflict, "conflict"},
		{"store unavailable", fmt.Errorf("list: %w: %w", service.ErrStoreUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, "store_unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockActualsService{
				getActualsFunc: func(ctx context.Context, projectID string) (*model.ProjectActuals, error) {
					return nil, tt.err
				},
			}
			rec := httptest.NewRecorder()
			newActualsMux(mock).ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects/p1/actuals", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := decodeError(t, rec); got != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, got)
			}
		})
	}
}
