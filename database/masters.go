package database

import (
	"database/sql"
	"errors"
	"fmt"
	"seibi/model"
)

var (
	vehicleCategoryColumns = []string{"name", "display_order"}
	statutoryFeeColumns    = []string{"vehicle_category_id", "name", "amount", "is_taxable", "display_order"}
	partColumns            = []string{"part_number", "name", "unit_price", "notes"}
	issuerInfoColumns      = []string{
		"company_name", "representative", "zip", "address", "phone", "fax", "email",
		"registration_number", "bank_info",
	}
)

// --- vehicle categories ---

func GetVehicleCategories(dbtx DBTX) ([]model.VehicleCategory, error) {
	cats := []model.VehicleCategory{}
	if err := dbtx.Select(&cats, "SELECT * FROM vehicle_categories ORDER BY display_order, id"); err != nil {
		return nil, fmt.Errorf("GetVehicleCategories failed: %w", err)
	}
	return cats, nil
}

func GetVehicleCategory(dbtx DBTX, id int64) (*model.VehicleCategory, error) {
	var c model.VehicleCategory
	if err := getByID(dbtx, &c, "vehicle_categories", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func CreateVehicleCategory(dbtx DBTX, c *model.VehicleCategory) error {
	id, err := insertNamed(dbtx, "vehicle_categories", vehicleCategoryColumns, c)
	if err != nil {
		return fmt.Errorf("CreateVehicleCategory (Name: %s) failed: %w", c.Name, err)
	}
	c.ID = id
	return nil
}

func UpdateVehicleCategory(dbtx DBTX, c *model.VehicleCategory) error {
	return updateNamed(dbtx, "vehicle_categories", vehicleCategoryColumns, c)
}

func DeleteVehicleCategory(dbtx DBTX, id int64) error {
	return deleteByID(dbtx, "vehicle_categories", id)
}

// --- statutory fees ---

func GetStatutoryFeesByCategory(dbtx DBTX, categoryID int64) ([]model.StatutoryFee, error) {
	fees := []model.StatutoryFee{}
	err := dbtx.Select(&fees,
		"SELECT * FROM statutory_fees WHERE vehicle_category_id = ? ORDER BY display_order, id", categoryID)
	if err != nil {
		return nil, fmt.Errorf("GetStatutoryFeesByCategory (CategoryID: %d) failed: %w", categoryID, err)
	}
	return fees, nil
}

func GetAllStatutoryFees(dbtx DBTX) ([]model.StatutoryFee, error) {
	fees := []model.StatutoryFee{}
	if err := dbtx.Select(&fees, "SELECT * FROM statutory_fees ORDER BY id"); err != nil {
		return nil, fmt.Errorf("GetAllStatutoryFees failed: %w", err)
	}
	return fees, nil
}

func CreateStatutoryFee(dbtx DBTX, f *model.StatutoryFee) error {
	id, err := insertNamed(dbtx, "statutory_fees", statutoryFeeColumns, f)
	if err != nil {
		return fmt.Errorf("CreateStatutoryFee (Name: %s) failed: %w", f.Name, err)
	}
	f.ID = id
	return nil
}

func UpdateStatutoryFee(dbtx DBTX, f *model.StatutoryFee) error {
	return updateNamed(dbtx, "statutory_fees", statutoryFeeColumns, f)
}

func DeleteStatutoryFee(dbtx DBTX, id int64) error {
	return deleteByID(dbtx, "statutory_fees", id)
}

// --- parts ---

func SearchParts(dbtx DBTX, query string) ([]model.Part, error) {
	parts := []model.Part{}
	like := "%" + query + "%"
	err := dbtx.Select(&parts,
		"SELECT * FROM parts WHERE name LIKE ? OR part_number LIKE ? ORDER BY part_number, id", like, like)
	if err != nil {
		return nil, fmt.Errorf("SearchParts failed: %w", err)
	}
	return parts, nil
}

func GetPart(dbtx DBTX, id int64) (*model.Part, error) {
	var p model.Part
	if err := getByID(dbtx, &p, "parts", id); err != nil {
		return nil, err
	}
	return &p, nil
}

func GetPartByNumber(dbtx DBTX, partNumber string) (*model.Part, error) {
	var p model.Part
	err := dbtx.Get(&p, "SELECT * FROM parts WHERE part_number = ? ORDER BY id LIMIT 1", partNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetPartByNumber (%s) failed: %w", partNumber, err)
	}
	return &p, nil
}

func GetAllParts(dbtx DBTX) ([]model.Part, error) {
	parts := []model.Part{}
	if err := dbtx.Select(&parts, "SELECT * FROM parts ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all parts: %w", err)
	}
	return parts, nil
}

func CreatePart(dbtx DBTX, p *model.Part) error {
	id, err := insertNamed(dbtx, "parts", partColumns, p)
	if err != nil {
		return fmt.Errorf("CreatePart (Name: %s) failed: %w", p.Name, err)
	}
	p.ID = id
	return nil
}

func UpdatePart(dbtx DBTX, p *model.Part) error {
	return updateNamed(dbtx, "parts", partColumns, p)
}

func DeletePart(dbtx DBTX, id int64) error {
	return deleteByID(dbtx, "parts", id)
}

// --- issuer info (single row) ---

// GetIssuerInfo returns the stored issuer, or an empty one when none is saved yet.
func GetIssuerInfo(dbtx DBTX) (*model.IssuerInfo, error) {
	var info model.IssuerInfo
	err := dbtx.Get(&info, "SELECT * FROM issuer_info ORDER BY id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return &model.IssuerInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetIssuerInfo failed: %w", err)
	}
	return &info, nil
}

func SaveIssuerInfo(dbtx DBTX, info *model.IssuerInfo) error {
	current, err := GetIssuerInfo(dbtx)
	if err != nil {
		return err
	}
	if current.ID == 0 {
		id, err := insertNamed(dbtx, "issuer_info", issuerInfoColumns, info)
		if err != nil {
			return fmt.Errorf("SaveIssuerInfo insert failed: %w", err)
		}
		info.ID = id
		return nil
	}
	info.ID = current.ID
	if err := updateNamed(dbtx, "issuer_info", issuerInfoColumns, info); err != nil {
		return fmt.Errorf("SaveIssuerInfo update failed: %w", err)
	}
	return nil
}
