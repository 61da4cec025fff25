package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Kana       string    `db:"kana" json:"kana"`
	Email      string    `db:"email" json:"email"`
	Zip        string    `db:"zip" json:"zip"`
	Prefecture int       `db:"prefecture" json:"prefecture"`
	Address    string    `db:"address" json:"address"`
	Building   string    `db:"building" json:"building"`
	Phone      string    `db:"phone" json:"phone"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Vehicle holds registration-certificate data. Optional numbers and dates are
// pointers so that "not given" stays distinguishable from zero.
type Vehicle struct {
	ID                int64  `db:"id" json:"id"`
	ClientID          int64  `db:"client_id" json:"clientId"`
	VehicleCategoryID *int64 `db:"vehicle_category_id" json:"vehicleCategoryId"`

	PlateRegion        string `db:"plate_region" json:"plateRegion"`
	PlateClass         string `db:"plate_class" json:"plateClass"`
	PlateKana          string `db:"plate_kana" json:"plateKana"`
	PlateNumber        string `db:"plate_number" json:"plateNumber"`
	RegistrationNumber string `db:"registration_number" json:"registrationNumber"`

	CarName               string `db:"car_name" json:"carName"`
	ModelName             string `db:"model_name" json:"modelName"`
	ModelCode             string `db:"model_code" json:"modelCode"`
	ChassisNumber         string `db:"chassis_number" json:"chassisNumber"`
	EngineModel           string `db:"engine_model" json:"engineModel"`
	TypeDesignationNumber string `db:"type_designation_number" json:"typeDesignationNumber"`
	CategoryNumber        string `db:"category_number" json:"categoryNumber"`

	FirstRegistration *time.Time `db:"first_registration" json:"firstRegistration"`
	RegistrationDate  *time.Time `db:"registration_date" json:"registrationDate"`
	InspectionExpiry  *time.Time `db:"inspection_expiry" json:"inspectionExpiry"`

	Mileage              *int     `db:"mileage" json:"mileage"`
	SeatingCapacity      *int     `db:"seating_capacity" json:"seatingCapacity"`
	MaxLoad              *int     `db:"max_load" json:"maxLoad"`
	VehicleWeight        *int     `db:"vehicle_weight" json:"vehicleWeight"`
	GrossWeight          *int     `db:"gross_weight" json:"grossWeight"`
	Length               *int     `db:"length" json:"length"`
	Width                *int     `db:"width" json:"width"`
	Height               *int     `db:"height" json:"height"`
	Displacement         *float64 `db:"displacement" json:"displacement"`
	FrontFrontAxleWeight *int     `db:"front_front_axle_weight" json:"frontFrontAxleWeight"`
	FrontRearAxleWeight  *int     `db:"front_rear_axle_weight" json:"frontRearAxleWeight"`
	RearFrontAxleWeight  *int     `db:"rear_front_axle_weight" json:"rearFrontAxleWeight"`
	RearRearAxleWeight   *int     `db:"rear_rear_axle_weight" json:"rearRearAxleWeight"`

	FuelType        string `db:"fuel_type" json:"fuelType"`
	Purpose         string `db:"purpose" json:"purpose"`
	PrivateBusiness string `db:"private_business" json:"privateBusiness"`
	BodyShape       string `db:"body_shape" json:"bodyShape"`
	Color           string `db:"color" json:"color"`
	OwnerName       string `db:"owner_name" json:"ownerName"`
	OwnerAddress    string `db:"owner_address" json:"ownerAddress"`
	UserName        string `db:"user_name" json:"userName"`
	UserAddress     string `db:"user_address" json:"userAddress"`
	BaseLocation    string `db:"base_location" json:"baseLocation"`
	Notes           string `db:"notes" json:"notes"`

	ImportSource string     `db:"import_source" json:"importSource"`
	ImportedAt   *time.Time `db:"imported_at" json:"importedAt"`
	ImportRaw    string     `db:"import_raw" json:"importRaw"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PlateDisplay joins the plate parts the way they appear on the plate.
func (v *Vehicle) PlateDisplay() string {
	if v.PlateRegion == "" && v.PlateClass == "" && v.PlateKana == "" && v.PlateNumber == "" {
		return v.RegistrationNumber
	}
	return v.PlateRegion + v.PlateClass + " " + v.PlateKana + " " + v.PlateNumber
}

type VehicleCategory struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
}

type StatutoryFee struct {
	ID                int64           `db:"id" json:"id"`
	VehicleCategoryID int64           `db:"vehicle_category_id" json:"vehicleCategoryId"`
	Name              string          `db:"name" json:"name"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	IsTaxable         bool            `db:"is_taxable" json:"isTaxable"`
	DisplayOrder      int             `db:"display_order" json:"displayOrder"`
}

type Part struct {
	ID         int64           `db:"id" json:"id"`
	PartNumber string          `db:"part_number" json:"partNumber"`
	Name       string          `db:"name" json:"name"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Notes      string          `db:"notes" json:"notes"`
}

type IssuerInfo struct {
	ID                 int64  `db:"id" json:"id"`
	CompanyName        string `db:"company_name" json:"companyName"`
	Representative     string `db:"representative" json:"representative"`
	Zip                string `db:"zip" json:"zip"`
	Address            string `db:"address" json:"address"`
	Phone              string `db:"phone" json:"phone"`
	Fax                string `db:"fax" json:"fax"`
	Email              string `db:"email" json:"email"`
	RegistrationNumber string `db:"registration_number" json:"registrationNumber"`
	BankInfo           string `db:"bank_info" json:"bankInfo"`
}
