package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// VariancePercentagePlaces is the number of decimal places kept in VariancePercentage.
const VariancePercentagePlaces = 4

// Totals は実績合計
type Totals struct {
	TotalLaborCost         decimal.Decimal
	TotalMaterialCost      decimal.Decimal
	TotalSubcontractorCost decimal.Decimal
	TotalActualCost        decimal.Decimal
}

// Variance は見積との差異
type Variance struct {
	Variance           decimal.Decimal
	VariancePercentage decimal.Decimal
}

// ComputeTotals sums labor and material TotalCost and subcontractor TotalPaid.
// Decimal addition is exact, so the result does not depend on entry order.
func ComputeTotals(labor []*LaborEntry, material []*MaterialEntry, subs []*SubcontractorEntry) Totals {
	var t Totals
	for _, e := range labor {
		t.TotalLaborCost = t.TotalLaborCost.Add(e.TotalCost)
	}
	for _, e := range material {
		t.TotalMaterialCost = t.TotalMaterialCost.Add(e.TotalCost)
	}
	for _, e := range subs {
		t.TotalSubcontractorCost = t.TotalSubcontractorCost.Add(e.TotalPaid)
	}
	t.TotalActualCost = t.TotalLaborCost.Add(t.TotalMaterialCost).Add(t.TotalSubcontractorCost)
	return t
}

// ComputeVariance returns totalActual - estimated and its percentage of
// estimated. The percentage is zero when estimated is not positive.
func ComputeVariance(totalActual, estimated decimal.Decimal) Variance {
	v := Variance{Variance: totalActual.Sub(estimated)}
	if estimated.IsPositive() {
		v.VariancePercentage = v.Variance.Mul(hundred).DivRound(estimated, VariancePercentagePlaces)
	}
	return v
}

// Reconcile returns a copy of prev with the entry caches replaced and every
// derived total recomputed. Identity, version, daily logs, change orders and
// CreatedAt carry over from prev.
func Reconcile(prev *ProjectActuals, estimated decimal.Decimal,
	labor []*LaborEntry, material []*MaterialEntry, subs []*SubcontractorEntry) *ProjectActuals {
	next := *prev
	next.LaborEntries = nonNil(labor)
	next.MaterialEntries = nonNil(material)
	next.SubcontractorEntries = nonNil(subs)

	t := ComputeTotals(labor, material, subs)
	next.TotalLaborCost = t.TotalLaborCost
	next.TotalMaterialCost = t.TotalMaterialCost
	next.TotalSubcontractorCost = t.TotalSubcontractorCost
	next.TotalActualCost = t.TotalActualCost

	v := ComputeVariance(t.TotalActualCost, estimated)
	next.Variance = v.Variance
	next.VariancePercentage = v.VariancePercentage
	return &next
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
