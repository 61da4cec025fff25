package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DetailTypeStatutory marks a line that carries a fixed statutory fee.
const DetailTypeStatutory = "法定費用"

type Invoice struct {
	ID                 int64           `db:"id" json:"id"`
	InvoiceNumber      string          `db:"invoice_number" json:"invoiceNumber"`
	SubNumber          int             `db:"sub_number" json:"subNumber"`
	ClientID           int64           `db:"client_id" json:"clientId"`
	VehicleID          *int64          `db:"vehicle_id" json:"vehicleId"`
	InvoiceDate        time.Time       `db:"invoice_date" json:"invoiceDate"`
	WorkCompletedDate  time.Time       `db:"work_completed_date" json:"workCompletedDate"`
	NextInspectionDate *time.Time      `db:"next_inspection_date" json:"nextInspectionDate"`
	Mileage            *int            `db:"mileage" json:"mileage"`
	TaxableSubTotal    decimal.Decimal `db:"taxable_sub_total" json:"taxableSubTotal"`
	NonTaxableSubTotal decimal.Decimal `db:"non_taxable_sub_total" json:"nonTaxableSubTotal"`
	TaxRate            decimal.Decimal `db:"tax_rate" json:"taxRate"`
	Tax                decimal.Decimal `db:"tax" json:"tax"`
	Total              decimal.Decimal `db:"total" json:"total"`
	Notes              string          `db:"notes" json:"notes"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`

	Details []InvoiceDetail `db:"-" json:"details,omitempty"`
}

type InvoiceDetail struct {
	ID           int64           `db:"id" json:"id"`
	InvoiceID    int64           `db:"invoice_id" json:"invoiceId"`
	PartID       *int64          `db:"part_id" json:"partId"`
	ItemName     string          `db:"item_name" json:"itemName"`
	Type         string          `db:"type" json:"type"`
	RepairMethod string          `db:"repair_method" json:"repairMethod"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LaborCost    decimal.Decimal `db:"labor_cost" json:"laborCost"`
	IsTaxable    bool            `db:"is_taxable" json:"isTaxable"`
	DisplayOrder int             `db:"display_order" json:"displayOrder"`
}

// SubTotal is unitPrice * quantity + laborCost.
func (d *InvoiceDetail) SubTotal() decimal.Decimal {
	return d.UnitPrice.Mul(d.Quantity).Add(d.LaborCost)
}

func (d *InvoiceDetail) IsStatutory() bool {
	return d.Type == DetailTypeStatutory
}
