package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LaborEntry は労務実績の1件
type LaborEntry struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	TradeID     *string         `json:"trade_id,omitempty"`
	Date        time.Time       `json:"date"`
	Trade       Trade           `json:"trade"`
	Description string          `json:"description"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	LaborRate   decimal.Decimal `json:"labor_rate"`
	// TotalCost is caller-supplied and not required to equal hours × rate.
	TotalCost decimal.Decimal `json:"total_cost"`
	CreatedAt time.Time       `json:"created_at"`
}

// LaborEntryInput is the request payload for a new labor entry.
type LaborEntryInput struct {
	Date        time.Time        `json:"date"`
	Description string           `json:"description"`
	TotalCost   decimal.Decimal  `json:"total_cost"`
	Trade       Trade            `json:"trade"`
	TradeID     *string          `json:"trade_id,omitempty"`
	TotalHours  *decimal.Decimal `json:"total_hours,omitempty"`
	LaborRate   *decimal.Decimal `json:"labor_rate,omitempty"`
}

// MaterialEntry は資材実績の1件
type MaterialEntry struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	TradeID       *string         `json:"trade_id,omitempty"`
	Date          time.Time       `json:"date"`
	MaterialName  string          `json:"material_name"`
	Category      Trade           `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          Unit            `json:"unit"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Vendor        string          `json:"vendor,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MaterialEntryInput is the request payload for a new material entry.
type MaterialEntryInput struct {
	Date          time.Time        `json:"date"`
	MaterialName  string           `json:"material_name"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	Category      Trade            `json:"category"`
	TradeID       *string          `json:"trade_id,omitempty"`
	Vendor        *string          `json:"vendor,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Unit          *Unit            `json:"unit,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
}

// SubcontractorInfo は下請業者の連絡先
type SubcontractorInfo struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// SubcontractorPayment は下請業者への支払い1回分
type SubcontractorPayment struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// SubcontractorEntry は下請契約の実績
type SubcontractorEntry struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"project_id"`
	TradeID        *string                `json:"trade_id,omitempty"`
	Subcontractor  SubcontractorInfo      `json:"subcontractor"`
	Trade          Trade                  `json:"trade"`
	ScopeOfWork    string                 `json:"scope_of_work"`
	ContractAmount decimal.Decimal        `json:"contract_amount"`
	Payments       []SubcontractorPayment `json:"payments"`
	// TotalPaid and Balance are fixed when the entry is created; Payments
	// do not drive them.
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// SubcontractorEntryInput is the request payload for a new subcontractor entry.
type SubcontractorEntryInput struct {
	SubcontractorName string          `json:"subcontractor_name"`
	ScopeOfWork       string          `json:"scope_of_work"`
	ContractAmount    decimal.Decimal `json:"contract_amount"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Trade             Trade           `json:"trade"`
	TradeID           *string         `json:"trade_id,omitempty"`
	Company           *string         `json:"company,omitempty"`
	Email             *string         `json:"email,omitempty"`
	Phone             *string         `json:"phone,omitempty"`
}
