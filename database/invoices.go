package database

import (
	"fmt"
	"seibi/model"
	"time"
)

var invoiceColumns = []string{
	"invoice_number", "sub_number", "client_id", "vehicle_id",
	"invoice_date", "work_completed_date", "next_inspection_date", "mileage",
	"taxable_sub_total", "non_taxable_sub_total", "tax_rate", "tax", "total", "notes",
	"created_at", "updated_at",
}

var invoiceDetailColumns = []string{
	"invoice_id", "part_id", "item_name", "type", "repair_method",
	"quantity", "unit_price", "labor_cost", "is_taxable", "display_order",
}

func CreateInvoice(dbtx DBTX, inv *model.Invoice) error {
	now := time.Now()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	id, err := insertNamed(dbtx, "invoices", invoiceColumns, inv)
	if err != nil {
		return fmt.Errorf("CreateInvoice (Number: %s-%d) failed: %w", inv.InvoiceNumber, inv.SubNumber, err)
	}
	inv.ID = id
	return nil
}

func UpdateInvoice(dbtx DBTX, inv *model.Invoice) error {
	inv.UpdatedAt = time.Now()
	if err := updateNamed(dbtx, "invoices", withoutCreatedAt(invoiceColumns), inv); err != nil {
		return fmt.Errorf("UpdateInvoice (ID: %d) failed: %w", inv.ID, err)
	}
	return nil
}

// GetInvoice loads the header only; see GetInvoiceDetails for lines.
func GetInvoice(dbtx DBTX, id int64) (*model.Invoice, error) {
	var inv model.Invoice
	if err := getByID(dbtx, &inv, "invoices", id); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns newest first; clientID 0 lists every client.
func ListInvoices(dbtx DBTX, clientID int64) ([]model.Invoice, error) {
	invoices := []model.Invoice{}
	var err error
	if clientID > 0 {
		err = dbtx.Select(&invoices,
			"SELECT * FROM invoices WHERE client_id = ? ORDER BY invoice_number DESC, sub_number", clientID)
	} else {
		err = dbtx.Select(&invoices, "SELECT * FROM invoices ORDER BY invoice_number DESC, sub_number")
	}
	if err != nil {
		return nil, fmt.Errorf("ListInvoices failed: %w", err)
	}
	return invoices, nil
}

func GetAllInvoices(dbtx DBTX) ([]model.Invoice, error) {
	invoices := []model.Invoice{}
	if err := dbtx.Select(&invoices, "SELECT * FROM invoices ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all invoices: %w", err)
	}
	return invoices, nil
}

func DeleteInvoice(dbtx DBTX, id int64) error {
	if err := deleteByID(dbtx, "invoices", id); err != nil {
		return fmt.Errorf("DeleteInvoice (ID: %d) failed: %w", id, err)
	}
	return nil
}

// InvoiceNumbersWithPrefix returns the distinct invoice numbers starting with
// prefix, largest first.
func InvoiceNumbersWithPrefix(dbtx DBTX, prefix string) ([]string, error) {
	numbers := []string{}
	err := dbtx.Select(&numbers,
		"SELECT DISTINCT invoice_number FROM invoices WHERE invoice_number LIKE ? ORDER BY invoice_number DESC",
		prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("InvoiceNumbersWithPrefix (%s) failed: %w", prefix, err)
	}
	return numbers, nil
}

func MaxSubNumber(dbtx DBTX, invoiceNumber string) (int, error) {
	var n int
	err := dbtx.Get(&n, "SELECT COALESCE(MAX(sub_number), 0) FROM invoices WHERE invoice_number = ?", invoiceNumber)
	if err != nil {
		return 0, fmt.Errorf("MaxSubNumber (%s) failed: %w", invoiceNumber, err)
	}
	return n, nil
}

// --- details ---

func GetInvoiceDetails(dbtx DBTX, invoiceID int64) ([]model.InvoiceDetail, error) {
	details := []model.InvoiceDetail{}
	err := dbtx.Select(&details,
		"SELECT * FROM invoice_details WHERE invoice_id = ? ORDER BY display_order, id", invoiceID)
	if err != nil {
		return nil, fmt.Errorf("GetInvoiceDetails (InvoiceID: %d) failed: %w", invoiceID, err)
	}
	return details, nil
}

func GetAllInvoiceDetails(dbtx DBTX) ([]model.InvoiceDetail, error) {
	details := []model.InvoiceDetail{}
	if err := dbtx.Select(&details, "SELECT * FROM invoice_details ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all invoice details: %w", err)
	}
	return details, nil
}

func GetInvoiceDetail(dbtx DBTX, id int64) (*model.InvoiceDetail, error) {
	var d model.InvoiceDetail
	if err := getByID(dbtx, &d, "invoice_details", id); err != nil {
		return nil, err
	}
	return &d, nil
}

func CreateInvoiceDetail(dbtx DBTX, d *model.InvoiceDetail) error {
	id, err := insertNamed(dbtx, "invoice_details", invoiceDetailColumns, d)
	if err != nil {
		return fmt.Errorf("CreateInvoiceDetail (InvoiceID: %d) failed: %w", d.InvoiceID, err)
	}
	d.ID = id
	return nil
}

func UpdateInvoiceDetail(dbtx DBTX, d *model.InvoiceDetail) error {
	if err := updateNamed(dbtx, "invoice_details", invoiceDetailColumns, d); err != nil {
		return fmt.Errorf("UpdateInvoiceDetail (ID: %d) failed: %w", d.ID, err)
	}
	return nil
}

func DeleteInvoiceDetail(dbtx DBTX, id int64) error {
	if err := deleteByID(dbtx, "invoice_details", id); err != nil {
		return fmt.Errorf("DeleteInvoiceDetail (ID: %d) failed: %w", id, err)
	}
	return nil
}

// NextDetailOrder returns one past the largest display_order on the invoice.
func NextDetailOrder(dbtx DBTX, invoiceID int64) (int, error) {
	var n int
	err := dbtx.Get(&n, "SELECT COALESCE(MAX(display_order), 0) FROM invoice_details WHERE invoice_id = ?", invoiceID)
	if err != nil {
		return 0, fmt.Errorf("NextDetailOrder (InvoiceID: %d) failed: %w", invoiceID, err)
	}
	return n + 1, nil
}

// MoveInvoiceDetails reassigns the given lines to another invoice.
func MoveInvoiceDetails(dbtx DBTX, toInvoiceID int64, detailIDs []int64) error {
	for _, id := range detailIDs {
		res, err := dbtx.Exec("UPDATE invoice_details SET invoice_id = ? WHERE id = ?", toInvoiceID, id)
		if err != nil {
			return fmt.Errorf("MoveInvoiceDetails (ID: %d) failed: %w", id, err)
		}
		if err := expectAffected(res); err != nil {
			return fmt.Errorf("MoveInvoiceDetails (ID: %d) failed: %w", id, err)
		}
	}
	return nil
}

func CountInvoices(dbtx DBTX) (int, error) {
	var n int
	err := dbtx.Get(&n, "SELECT COUNT(*) FROM invoices")
	return n, err
}
