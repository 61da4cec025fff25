package vehicle

import (
	"errors"
	"seibi/database"
	"seibi/kana"
	"seibi/mappers"
	"seibi/model"
	"seibi/validation"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	db  *sqlx.DB
	Now func() time.Time
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db, Now: time.Now}
}

func (s *Service) validate(dbtx database.DBTX, v *model.Vehicle) error {
	viol := validation.Violations{}
	if v.ClientID <= 0 {
		viol["clientId"] = "required"
	} else if _, err := database.GetClient(dbtx, v.ClientID); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		viol["clientId"] = "not_found"
	}
	if v.VehicleCategoryID != nil {
		if _, err := database.GetVehicleCategory(dbtx, *v.VehicleCategoryID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			viol["vehicleCategoryId"] = "not_found"
		}
	}
	validation.MaxLength("registrationNumber", v.RegistrationNumber, 50, viol)
	validation.MaxLength("carName", v.CarName, 100, viol)
	validation.MaxLength("chassisNumber", v.ChassisNumber, 50, viol)
	validation.MaxLength("notes", v.Notes, 1000, viol)
	for field, n := range map[string]*int{
		"mileage":         v.Mileage,
		"seatingCapacity": v.SeatingCapacity,
		"maxLoad":         v.MaxLoad,
		"vehicleWeight":   v.VehicleWeight,
		"grossWeight":     v.GrossWeight,
	} {
		if n != nil && *n < 0 {
			viol[field] = "must_not_be_negative"
		}
	}
	return viol.Err()
}

// normalize は手入力の登録番号・車台番号の全角を揃え、登録番号とナンバーの分割を補います。
func normalize(v *model.Vehicle) {
	v.RegistrationNumber = kana.NormalizeWidth(v.RegistrationNumber)
	v.ChassisNumber = kana.NormalizeWidth(v.ChassisNumber)
	v.ModelCode = kana.NormalizeWidth(v.ModelCode)
	if v.PlateNumber == "" && v.RegistrationNumber != "" {
		v.PlateRegion, v.PlateClass, v.PlateKana, v.PlateNumber = mappers.SplitPlate(v.RegistrationNumber)
	}
	if v.RegistrationNumber == "" && v.PlateNumber != "" {
		v.RegistrationNumber = v.PlateDisplay()
	}
}

func (s *Service) Create(v *model.Vehicle) error {
	normalize(v)
	if err := s.validate(s.db, v); err != nil {
		return err
	}
	return database.CreateVehicle(s.db, v)
}

// Update は取り込み元の情報 (import_*) と作成日時を保ったまま更新します。
func (s *Service) Update(v *model.Vehicle) error {
	current, err := database.GetVehicle(s.db, v.ID)
	if err != nil {
		return err
	}
	normalize(v)
	if err := s.validate(s.db, v); err != nil {
		return err
	}
	v.ImportSource = current.ImportSource
	v.ImportedAt = current.ImportedAt
	v.ImportRaw = current.ImportRaw
	v.CreatedAt = current.CreatedAt
	return database.UpdateVehicle(s.db, v)
}

func (s *Service) Get(id int64) (*model.Vehicle, error) {
	return database.GetVehicle(s.db, id)
}

// List は clientID > 0 ならその顧客の車両、query があれば検索、どちらも無ければ全件です。
func (s *Service) List(clientID int64, query string) ([]model.Vehicle, error) {
	switch {
	case clientID > 0:
		return database.GetVehiclesByClient(s.db, clientID)
	case query != "":
		return database.SearchVehicles(s.db, kana.NormalizeWidth(query))
	default:
		return database.GetAllVehicles(s.db)
	}
}

func (s *Service) Delete(id int64) error {
	return database.DeleteVehicle(s.db, id)
}

// CertificateResult は車検証の取り込み結果です。
type CertificateResult struct {
	Vehicle *model.Vehicle `json:"vehicle"`
	Applied []string       `json:"applied"`
	Created bool           `json:"created"`
}

// ImportCertificate は車検証の読み取り結果 (項目名 → 値) を車両に反映します。
// vehicleID があればその車両を更新し、無ければ clientID の顧客に新しい車両を作ります。
func (s *Service) ImportCertificate(vehicleID, clientID int64, payload map[string]any) (*CertificateResult, error) {
	if len(payload) == 0 {
		return nil, validation.Violations{"payload": "required"}.Err()
	}
	res := &CertificateResult{}
	err := database.WithTx(s.db, func(tx *sqlx.Tx) error {
		var v *model.Vehicle
		switch {
		case vehicleID > 0:
			current, err := database.GetVehicle(tx, vehicleID)
			if err != nil {
				return err
			}
			v = current
		case clientID > 0:
			if _, err := database.GetClient(tx, clientID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return validation.Violations{"clientId": "not_found"}.Err()
				}
				return err
			}
			v = &model.Vehicle{ClientID: clientID}
			res.Created = true
		default:
			return validation.Violations{"vehicleId": "required"}.Err()
		}

		res.Applied = mappers.ApplyCertificate(v, payload, s.Now())
		if len(res.Applied) == 0 {
			return validation.Violations{"payload": "no_known_fields"}.Err()
		}
		if v.PlateNumber == "" && v.RegistrationNumber != "" {
			v.PlateRegion, v.PlateClass, v.PlateKana, v.PlateNumber = mappers.SplitPlate(v.RegistrationNumber)
		}

		if res.Created {
			if err := database.CreateVehicle(tx, v); err != nil {
				return err
			}
		} else if err := database.UpdateVehicle(tx, v); err != nil {
			return err
		}
		res.Vehicle = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Certificate imported into vehicle %d (%d fields)", res.Vehicle.ID, len(res.Applied))
	return res, nil
}
