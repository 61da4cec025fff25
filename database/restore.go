package database

import (
	"fmt"
	"seibi/model"
	"strings"
)

// RestoreTables lists the tables in parent-before-child order. Deleting walks it backwards.
var RestoreTables = []string{
	"clients",
	"vehicle_categories",
	"statutory_fees",
	"parts",
	"vehicles",
	"invoices",
	"invoice_details",
	"issuer_info",
	"users",
	"email_settings",
	"password_reset_tokens",
}

// DeleteAllRows empties every restorable table, children first.
func DeleteAllRows(dbtx DBTX) error {
	for i := len(RestoreTables) - 1; i >= 0; i-- {
		if _, err := dbtx.Exec("DELETE FROM " + RestoreTables[i]); err != nil {
			return fmt.Errorf("failed to clear table '%s': %w", RestoreTables[i], err)
		}
	}
	return nil
}

// insertAllWithID inserts rows keeping their ids.
func insertAllWithID[T any](dbtx DBTX, table string, cols []string, rows []T) error {
	all := withID(cols)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table, strings.Join(all, ", "), strings.Join(all, ", :"))
	for i := range rows {
		if _, err := dbtx.NamedExec(q, &rows[i]); err != nil {
			return fmt.Errorf("restore %s (record %d) failed: %w", table, i+1, err)
		}
	}
	return nil
}

func RestoreClients(dbtx DBTX, rows []model.Client) error {
	return insertAllWithID(dbtx, "clients", clientColumns, rows)
}

func RestoreVehicleCategories(dbtx DBTX, rows []model.VehicleCategory) error {
	return insertAllWithID(dbtx, "vehicle_categories", vehicleCategoryColumns, rows)
}

func RestoreStatutoryFees(dbtx DBTX, rows []model.StatutoryFee) error {
	return insertAllWithID(dbtx, "statutory_fees", statutoryFeeColumns, rows)
}

func RestoreParts(dbtx DBTX, rows []model.Part) error {
	return insertAllWithID(dbtx, "parts", partColumns, rows)
}

func RestoreVehicles(dbtx DBTX, rows []model.Vehicle) error {
	return insertAllWithID(dbtx, "vehicles", vehicleColumns, rows)
}

func RestoreInvoices(dbtx DBTX, rows []model.Invoice) error {
	return insertAllWithID(dbtx, "invoices", invoiceColumns, rows)
}

func RestoreInvoiceDetails(dbtx DBTX, rows []model.InvoiceDetail) error {
	return insertAllWithID(dbtx, "invoice_details", invoiceDetailColumns, rows)
}

func RestoreIssuerInfo(dbtx DBTX, rows []model.IssuerInfo) error {
	return insertAllWithID(dbtx, "issuer_info", issuerInfoColumns, rows)
}

func RestoreUsers(dbtx DBTX, rows []model.User) error {
	return insertAllWithID(dbtx, "users", userColumns, rows)
}

func RestoreEmailSettings(dbtx DBTX, rows []model.EmailSettings) error {
	return insertAllWithID(dbtx, "email_settings", emailSettingsColumns, rows)
}

func RestoreResetTokens(dbtx DBTX, rows []model.PasswordResetToken) error {
	return insertAllWithID(dbtx, "password_reset_tokens", resetTokenColumns, rows)
}

// GetAllIssuerInfo returns every issuer_info row; normally there is at most one.
func GetAllIssuerInfo(dbtx DBTX) ([]model.IssuerInfo, error) {
	rows := []model.IssuerInfo{}
	if err := dbtx.Select(&rows, "SELECT * FROM issuer_info ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get issuer info: %w", err)
	}
	return rows, nil
}
