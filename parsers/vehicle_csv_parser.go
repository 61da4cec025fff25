package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Field は取り込み先の項目 (顧客・車両の属性) です。
type Field string

const (
	FieldName       Field = "name"
	FieldKana       Field = "kana"
	FieldEmail      Field = "email"
	FieldZip        Field = "zip"
	FieldPrefecture Field = "prefecture"
	FieldAddress    Field = "address"
	FieldBuilding   Field = "building"
	FieldPhone      Field = "phone"

	FieldPlateRegion           Field = "plateRegion"
	FieldPlateClass            Field = "plateClass"
	FieldPlateKana             Field = "plateKana"
	FieldPlateNumber           Field = "plateNumber"
	FieldRegistrationNumber    Field = "registrationNumber"
	FieldCarName               Field = "carName"
	FieldModelName             Field = "modelName"
	FieldModelCode             Field = "modelCode"
	FieldChassisNumber         Field = "chassisNumber"
	FieldEngineModel           Field = "engineModel"
	FieldTypeDesignationNumber Field = "typeDesignationNumber"
	FieldCategoryNumber        Field = "categoryNumber"
	FieldFirstRegistration     Field = "firstRegistration"
	FieldRegistrationDate      Field = "registrationDate"
	FieldInspectionExpiry      Field = "inspectionExpiry"
	FieldMileage               Field = "mileage"
	FieldSeatingCapacity       Field = "seatingCapacity"
	FieldMaxLoad               Field = "maxLoad"
	FieldVehicleWeight         Field = "vehicleWeight"
	FieldGrossWeight           Field = "grossWeight"
	FieldLength                Field = "length"
	FieldWidth                 Field = "width"
	FieldHeight                Field = "height"
	FieldDisplacement          Field = "displacement"
	FieldFrontFrontAxleWeight  Field = "frontFrontAxleWeight"
	FieldFrontRearAxleWeight   Field = "frontRearAxleWeight"
	FieldRearFrontAxleWeight   Field = "rearFrontAxleWeight"
	FieldRearRearAxleWeight    Field = "rearRearAxleWeight"
	FieldFuelType              Field = "fuelType"
	FieldPurpose               Field = "purpose"
	FieldPrivateBusiness       Field = "privateBusiness"
	FieldBodyShape             Field = "bodyShape"
	FieldColor                 Field = "color"
	FieldOwnerName             Field = "ownerName"
	FieldOwnerAddress          Field = "ownerAddress"
	FieldUserName              Field = "userName"
	FieldUserAddress           Field = "userAddress"
	FieldBaseLocation          Field = "baseLocation"
	FieldNotes                 Field = "notes"
)

// HeaderMap はCSVの見出しから取り込み先項目への対応表です。
type HeaderMap map[string]Field

// DefaultHeaderMap は顧客管理ソフトの書き出しCSV (fld_ 見出し) 用の対応表です。
// 住所・住所1 と 電話番号・携帯番号 は同じ項目に対応しており、
// 両方ある場合は右側の列が優先されます。
var DefaultHeaderMap = HeaderMap{
	"fld_氏名":     FieldName,
	"fld_フリガナ":   FieldKana,
	"fld_メール":    FieldEmail,
	"fld_郵便番号":   FieldZip,
	"fld_都道府県":   FieldPrefecture,
	"fld_住所":     FieldAddress,
	"fld_住所1":    FieldAddress,
	"fld_住所2":    FieldBuilding,
	"fld_電話番号":   FieldPhone,
	"fld_携帯番号":   FieldPhone,
	"fld_陸運支局":   FieldPlateRegion,
	"fld_分類番号":   FieldPlateClass,
	"fld_かな":     FieldPlateKana,
	"fld_一連番号":   FieldPlateNumber,
	"fld_登録番号":   FieldRegistrationNumber,
	"fld_車名":     FieldCarName,
	"fld_通称名":    FieldModelName,
	"fld_型式":     FieldModelCode,
	"fld_車台番号":   FieldChassisNumber,
	"fld_原動機型式":  FieldEngineModel,
	"fld_型式指定番号": FieldTypeDesignationNumber,
	"fld_類別区分番号": FieldCategoryNumber,
	"fld_初度登録年月": FieldFirstRegistration,
	"fld_登録年月日":  FieldRegistrationDate,
	"fld_車検満了日":  FieldInspectionExpiry,
	"fld_走行距離":   FieldMileage,
	"fld_乗車定員":   FieldSeatingCapacity,
	"fld_最大積載量":  FieldMaxLoad,
	"fld_車両重量":   FieldVehicleWeight,
	"fld_車両総重量":  FieldGrossWeight,
	"fld_長さ":     FieldLength,
	"fld_幅":      FieldWidth,
	"fld_高さ":     FieldHeight,
	"fld_総排気量":   FieldDisplacement,
	"fld_前前軸重":   FieldFrontFrontAxleWeight,
	"fld_前後軸重":   FieldFrontRearAxleWeight,
	"fld_後前軸重":   FieldRearFrontAxleWeight,
	"fld_後後軸重":   FieldRearRearAxleWeight,
	"fld_燃料の種類":  FieldFuelType,
	"fld_用途":     FieldPurpose,
	"fld_自家用事業用": FieldPrivateBusiness,
	"fld_車体の形状":  FieldBodyShape,
	"fld_色":      FieldColor,
	"fld_所有者氏名":  FieldOwnerName,
	"fld_所有者住所":  FieldOwnerAddress,
	"fld_使用者氏名":  FieldUserName,
	"fld_使用者住所":  FieldUserAddress,
	"fld_使用の本拠":  FieldBaseLocation,
	"fld_備考":     FieldNotes,
}

// ResolveColumns は見出し行から項目ごとの列位置を求めます。
// 未知の見出しは無視し、同じ項目に複数の列が対応する場合は最後 (右端) の列を採ります。
func ResolveColumns(header []string, headerMap HeaderMap) map[Field]int {
	cols := make(map[Field]int)
	for i, h := range header {
		if f, ok := headerMap[strings.TrimSpace(TrimBOM(h))]; ok {
			cols[f] = i
		}
	}
	return cols
}

// RowStatus は1行の処理結果の種類です。
type RowStatus int

const (
	RowOK RowStatus = iota
	RowSkipped
	RowError
)

// VehicleRow はCSVの1データ行です。Row は見出しを除いた1始まりの行番号です。
type VehicleRow struct {
	Row    int
	Status RowStatus
	Reason string
	Err    error
	Values map[Field]string
	// Raw は見出しと値の組 (import_raw に保存する)
	Raw map[string]string
}

// Get は項目の値を前後の空白を除いて返します。列が無ければ空文字列です。
func (r *VehicleRow) Get(f Field) string {
	return r.Values[f]
}

// Has は項目に対応する列が見出しにあったかどうかを返します。
func (r *VehicleRow) Has(f Field) bool {
	_, ok := r.Values[f]
	return ok
}

// VehicleCSVReader は車両CSVを1行ずつ読み出します。
type VehicleCSVReader struct {
	reader *csv.Reader
	header []string
	cols   map[Field]int
	row    int
}

// NewVehicleCSVReader は見出し行を読み込んだリーダーを返します。
// r はすでに UTF-8 に変換済みであること (NewDecodingReader を参照)。
func NewVehicleCSVReader(r io.Reader, headerMap HeaderMap) (*VehicleCSVReader, error) {
	if headerMap == nil {
		headerMap = DefaultHeaderMap
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSVファイルが空です")
	}
	if err != nil {
		return nil, fmt.Errorf("CSVヘッダーの読み取りに失敗: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(TrimBOM(header[i]))
	}
	cols := ResolveColumns(header, headerMap)
	if _, ok := cols[FieldName]; !ok {
		return nil, fmt.Errorf("必須ヘッダーが見つかりません: 氏名")
	}
	return &VehicleCSVReader{reader: reader, header: header, cols: cols}, nil
}

// Header は正規化済みの見出し行です。
func (v *VehicleCSVReader) Header() []string {
	return v.header
}

// Columns は項目ごとの列位置です。
func (v *VehicleCSVReader) Columns() map[Field]int {
	return v.cols
}

// Next は次の行を返します。終端では io.EOF を返します。
// 引用符の不正などの行単位の問題は RowError として返し、読み込みは続行できます。
func (v *VehicleCSVReader) Next() (VehicleRow, error) {
	rec, err := v.reader.Read()
	if err == io.EOF {
		return VehicleRow{}, io.EOF
	}
	v.row++
	out := VehicleRow{Row: v.row}
	if err != nil {
		var perr *csv.ParseError
		if !errors.As(err, &perr) {
			return out, err
		}
		out.Status = RowError
		out.Err = perr.Err
		return out, nil
	}
	if len(rec) < len(v.header) {
		out.Status = RowSkipped
		out.Reason = fmt.Sprintf("列数不足 (%d/%d)", len(rec), len(v.header))
		return out, nil
	}

	out.Values = make(map[Field]string, len(v.cols))
	for f, idx := range v.cols {
		out.Values[f] = strings.TrimSpace(rec[idx])
	}
	if out.Values[FieldName] == "" {
		out.Status = RowSkipped
		return out, nil
	}
	out.Raw = make(map[string]string, len(v.header))
	for i, h := range v.header {
		if h != "" {
			out.Raw[h] = rec[i]
		}
	}
	out.Status = RowOK
	return out, nil
}
