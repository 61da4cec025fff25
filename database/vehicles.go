package database

import (
	"fmt"
	"seibi/model"
	"time"
)

var vehicleColumns = []string{
	"client_id", "vehicle_category_id",
	"plate_region", "plate_class", "plate_kana", "plate_number", "registration_number",
	"car_name", "model_name", "model_code", "chassis_number", "engine_model",
	"type_designation_number", "category_number",
	"first_registration", "registration_date", "inspection_expiry",
	"mileage", "seating_capacity", "max_load", "vehicle_weight", "gross_weight",
	"length", "width", "height", "displacement",
	"front_front_axle_weight", "front_rear_axle_weight", "rear_front_axle_weight", "rear_rear_axle_weight",
	"fuel_type", "purpose", "private_business", "body_shape", "color",
	"owner_name", "owner_address", "user_name", "user_address", "base_location", "notes",
	"import_source", "imported_at", "import_raw",
	"created_at", "updated_at",
}

func CreateVehicle(dbtx DBTX, v *model.Vehicle) error {
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	id, err := insertNamed(dbtx, "vehicles", vehicleColumns, v)
	if err != nil {
		return fmt.Errorf("CreateVehicle (ClientID: %d) failed: %w", v.ClientID, err)
	}
	v.ID = id
	return nil
}

// CreateVehicles inserts a batch in order; the first failure aborts the batch.
func CreateVehicles(dbtx DBTX, vehicles []*model.Vehicle) error {
	for _, v := range vehicles {
		if err := CreateVehicle(dbtx, v); err != nil {
			return err
		}
	}
	return nil
}

func UpdateVehicle(dbtx DBTX, v *model.Vehicle) error {
	v.UpdatedAt = time.Now()
	if err := updateNamed(dbtx, "vehicles", withoutCreatedAt(vehicleColumns), v); err != nil {
		return fmt.Errorf("UpdateVehicle (ID: %d) failed: %w", v.ID, err)
	}
	return nil
}

func GetVehicle(dbtx DBTX, id int64) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := getByID(dbtx, &v, "vehicles", id); err != nil {
		return nil, err
	}
	return &v, nil
}

func GetVehiclesByClient(dbtx DBTX, clientID int64) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	err := dbtx.Select(&vehicles, "SELECT * FROM vehicles WHERE client_id = ? ORDER BY id", clientID)
	if err != nil {
		return nil, fmt.Errorf("GetVehiclesByClient (ClientID: %d) failed: %w", clientID, err)
	}
	return vehicles, nil
}

// SearchVehicles matches plate, registration number, car name or chassis number.
func SearchVehicles(dbtx DBTX, query string) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	like := "%" + query + "%"
	const q = `SELECT * FROM vehicles
		WHERE registration_number LIKE ? OR plate_number LIKE ? OR car_name LIKE ? OR chassis_number LIKE ?
		ORDER BY id`
	if err := dbtx.Select(&vehicles, q, like, like, like, like); err != nil {
		return nil, fmt.Errorf("SearchVehicles failed: %w", err)
	}
	return vehicles, nil
}

func GetAllVehicles(dbtx DBTX) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	if err := dbtx.Select(&vehicles, "SELECT * FROM vehicles ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all vehicles: %w", err)
	}
	return vehicles, nil
}

func DeleteVehicle(dbtx DBTX, id int64) error {
	if err := deleteByID(dbtx, "vehicles", id); err != nil {
		return fmt.Errorf("DeleteVehicle (ID: %d) failed: %w", id, err)
	}
	return nil
}

func CountVehicles(dbtx DBTX) (int, error) {
	var n int
	err := dbtx.Get(&n, "SELECT COUNT(*) FROM vehicles")
	return n, err
}

// DeleteAllVehiclesAndClients wipes both tables, vehicles first, and resets
// their sequences.
func DeleteAllVehiclesAndClients(dbtx DBTX) error {
	if _, err := dbtx.Exec("DELETE FROM vehicles"); err != nil {
		return fmt.Errorf("failed to delete vehicles: %w", err)
	}
	if _, err := dbtx.Exec("DELETE FROM clients"); err != nil {
		return fmt.Errorf("failed to delete clients: %w", err)
	}
	return ResetSequences(dbtx, "vehicles", "clients")
}
