package mappers

import (
	"encoding/json"
	"seibi/kana"
	"seibi/model"
	"seibi/parsers"
	"seibi/prefecture"
	"time"
)

// ImportSourceCSV / ImportSourceCertificate は vehicles.import_source の値です。
const (
	ImportSourceCSV         = "csv"
	ImportSourceCertificate = "certificate"
)

// ClientFromRow は CSV 行から新規顧客を作ります。
// メールは不明なので空文字列、都道府県の列が無ければ住所から推定します。
func ClientFromRow(row *parsers.VehicleRow) model.Client {
	c := model.Client{
		Name:     row.Get(parsers.FieldName),
		Kana:     kana.NormalizeWidth(row.Get(parsers.FieldKana)),
		Email:    row.Get(parsers.FieldEmail),
		Zip:      kana.NormalizeWidth(row.Get(parsers.FieldZip)),
		Address:  kana.NormalizeWidth(row.Get(parsers.FieldAddress)),
		Building: kana.NormalizeWidth(row.Get(parsers.FieldBuilding)),
		Phone:    kana.NormalizeWidth(row.Get(parsers.FieldPhone)),
	}
	c.Prefecture = PrefectureFromRow(row, c.Address)
	return c
}

// PrefectureFromRow は都道府県の列 (名称またはコード) を優先し、無ければ住所から推定します。
func PrefectureFromRow(row *parsers.VehicleRow, address string) int {
	if row.Has(parsers.FieldPrefecture) {
		v := row.Get(parsers.FieldPrefecture)
		if code := prefecture.ResolveCode(v); code != prefecture.Unknown {
			return code
		}
		if n := parsers.ParseInt(v); n != nil && prefecture.Valid(*n) {
			return *n
		}
	}
	return prefecture.InferFromAddress(address)
}

// ClientFromCSVRecord は顧客マスタCSVの1行を顧客にします。
func ClientFromCSVRecord(rec parsers.ParsedClientCSVRecord) model.Client {
	c := model.Client{
		Name:     rec.Name,
		Kana:     kana.NormalizeWidth(rec.Kana),
		Email:    rec.Email,
		Zip:      kana.NormalizeWidth(rec.Zip),
		Address:  kana.NormalizeWidth(rec.Address),
		Building: kana.NormalizeWidth(rec.Building),
		Phone:    kana.NormalizeWidth(rec.Phone),
	}
	c.Prefecture = prefecture.InferFromAddress(c.Address)
	return c
}

// VehicleFromRow は CSV 行から車両を作ります。
// 文字列は全角・半角を正規化し、数値・日付は解釈できなければ未設定のままにします。
func VehicleFromRow(row *parsers.VehicleRow, clientID int64, importedAt time.Time) *model.Vehicle {
	text := func(f parsers.Field) string {
		return kana.NormalizeWidth(row.Get(f))
	}
	v := &model.Vehicle{
		ClientID: clientID,

		PlateRegion:        text(parsers.FieldPlateRegion),
		PlateClass:         text(parsers.FieldPlateClass),
		PlateKana:          text(parsers.FieldPlateKana),
		PlateNumber:        text(parsers.FieldPlateNumber),
		RegistrationNumber: text(parsers.FieldRegistrationNumber),

		CarName:               text(parsers.FieldCarName),
		ModelName:             text(parsers.FieldModelName),
		ModelCode:             text(parsers.FieldModelCode),
		ChassisNumber:         text(parsers.FieldChassisNumber),
		EngineModel:           text(parsers.FieldEngineModel),
		TypeDesignationNumber: text(parsers.FieldTypeDesignationNumber),
		CategoryNumber:        text(parsers.FieldCategoryNumber),

		FirstRegistration: parsers.ParseDate(row.Get(parsers.FieldFirstRegistration)),
		RegistrationDate:  parsers.ParseDate(row.Get(parsers.FieldRegistrationDate)),
		InspectionExpiry:  parsers.ParseDate(row.Get(parsers.FieldInspectionExpiry)),

		Mileage:              parsers.ParseInt(row.Get(parsers.FieldMileage)),
		SeatingCapacity:      parsers.ParseInt(row.Get(parsers.FieldSeatingCapacity)),
		MaxLoad:              parsers.ParseInt(row.Get(parsers.FieldMaxLoad)),
		VehicleWeight:        parsers.ParseInt(row.Get(parsers.FieldVehicleWeight)),
		GrossWeight:          parsers.ParseInt(row.Get(parsers.FieldGrossWeight)),
		Length:               parsers.ParseInt(row.Get(parsers.FieldLength)),
		Width:                parsers.ParseInt(row.Get(parsers.FieldWidth)),
		Height:               parsers.ParseInt(row.Get(parsers.FieldHeight)),
		Displacement:         parsers.ParseFloat(row.Get(parsers.FieldDisplacement)),
		FrontFrontAxleWeight: parsers.ParseInt(row.Get(parsers.FieldFrontFrontAxleWeight)),
		FrontRearAxleWeight:  parsers.ParseInt(row.Get(parsers.FieldFrontRearAxleWeight)),
		RearFrontAxleWeight:  parsers.ParseInt(row.Get(parsers.FieldRearFrontAxleWeight)),
		RearRearAxleWeight:   parsers.ParseInt(row.Get(parsers.FieldRearRearAxleWeight)),

		FuelType:        text(parsers.FieldFuelType),
		Purpose:         text(parsers.FieldPurpose),
		PrivateBusiness: text(parsers.FieldPrivateBusiness),
		BodyShape:       text(parsers.FieldBodyShape),
		Color:           text(parsers.FieldColor),
		OwnerName:       text(parsers.FieldOwnerName),
		OwnerAddress:    text(parsers.FieldOwnerAddress),
		UserName:        text(parsers.FieldUserName),
		UserAddress:     text(parsers.FieldUserAddress),
		BaseLocation:    text(parsers.FieldBaseLocation),
		Notes:           row.Get(parsers.FieldNotes),

		ImportSource: ImportSourceCSV,
	}
	at := importedAt
	v.ImportedAt = &at
	if raw, err := json.Marshal(row.Raw); err == nil {
		v.ImportRaw = string(raw)
	}
	if v.RegistrationNumber == "" && v.PlateNumber != "" {
		v.RegistrationNumber = v.PlateDisplay()
	} else if v.PlateNumber == "" && v.RegistrationNumber != "" {
		v.PlateRegion, v.PlateClass, v.PlateKana, v.PlateNumber = SplitPlate(v.RegistrationNumber)
	}
	return v
}
