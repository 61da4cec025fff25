package invoice

import (
	"seibi/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line は合計計算に必要な明細の値です。
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LaborCost decimal.Decimal
	IsTaxable bool
}

// SubTotal は quantity * unitPrice + laborCost です。
func (l Line) SubTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Add(l.LaborCost)
}

type Totals struct {
	TaxableSubTotal    decimal.Decimal `json:"taxableSubTotal"`
	NonTaxableSubTotal decimal.Decimal `json:"nonTaxableSubTotal"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
}

// CalculateTotals は課税・非課税の小計、消費税 (切り捨て)、合計を求めます。
//
//	tax   = floor(taxable * rate / 100)
//	total = taxable + nonTaxable + tax
func CalculateTotals(lines []Line, taxRatePercent decimal.Decimal) Totals {
	taxable := decimal.Zero
	nonTaxable := decimal.Zero
	for _, l := range lines {
		if l.IsTaxable {
			taxable = taxable.Add(l.SubTotal())
		} else {
			nonTaxable = nonTaxable.Add(l.SubTotal())
		}
	}
	tax := taxable.Mul(taxRatePercent).Div(hundred).Floor()
	return Totals{
		TaxableSubTotal:    taxable,
		NonTaxableSubTotal: nonTaxable,
		Tax:                tax,
		Total:              taxable.Add(nonTaxable).Add(tax),
	}
}

// LinesFromDetails は保存済みの明細を計算用に変換します。
func LinesFromDetails(details []model.InvoiceDetail) []Line {
	lines := make([]Line, len(details))
	for i, d := range details {
		lines[i] = Line{
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			LaborCost: d.LaborCost,
			IsTaxable: d.IsTaxable,
		}
	}
	return lines
}

// ApplyTotals は明細から合計を計算して請求書に設定します。
func ApplyTotals(inv *model.Invoice, details []model.InvoiceDetail) Totals {
	t := CalculateTotals(LinesFromDetails(details), inv.TaxRate)
	inv.TaxableSubTotal = t.TaxableSubTotal
	inv.NonTaxableSubTotal = t.NonTaxableSubTotal
	inv.Tax = t.Tax
	inv.Total = t.Total
	return t
}
