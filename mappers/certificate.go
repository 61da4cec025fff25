package mappers

import (
	"encoding/json"
	"regexp"
	"seibi/kana"
	"seibi/model"
	"seibi/parsers"
	"strconv"
	"strings"
	"time"
)

type certField struct {
	label string
	apply func(v *model.Vehicle, s string) bool
}

func textField(get func(v *model.Vehicle) *string) func(*model.Vehicle, string) bool {
	return func(v *model.Vehicle, s string) bool {
		*get(v) = kana.NormalizeWidth(s)
		return true
	}
}

func intField(get func(v *model.Vehicle) **int) func(*model.Vehicle, string) bool {
	return func(v *model.Vehicle, s string) bool {
		n := parsers.ParseInt(s)
		if n == nil {
			return false
		}
		*get(v) = n
		return true
	}
}

func dateField(get func(v *model.Vehicle) **time.Time) func(*model.Vehicle, string) bool {
	return func(v *model.Vehicle, s string) bool {
		d := parsers.ParseDate(s)
		if d == nil {
			return false
		}
		*get(v) = d
		return true
	}
}

// 車検証の項目名と車両の属性の対応 (上から順に適用)
var certificateFields = []certField{
	{"自動車登録番号", func(v *model.Vehicle, s string) bool {
		v.RegistrationNumber = kana.NormalizeWidth(s)
		v.PlateRegion, v.PlateClass, v.PlateKana, v.PlateNumber = SplitPlate(v.RegistrationNumber)
		return true
	}},
	{"車両番号", func(v *model.Vehicle, s string) bool {
		v.RegistrationNumber = kana.NormalizeWidth(s)
		v.PlateRegion, v.PlateClass, v.PlateKana, v.PlateNumber = SplitPlate(v.RegistrationNumber)
		return true
	}},
	{"車名", textField(func(v *model.Vehicle) *string { return &v.CarName })},
	{"型式", textField(func(v *model.Vehicle) *string { return &v.ModelCode })},
	{"車台番号", textField(func(v *model.Vehicle) *string { return &v.ChassisNumber })},
	{"原動機の型式", textField(func(v *model.Vehicle) *string { return &v.EngineModel })},
	{"総排気量又は定格出力", func(v *model.Vehicle, s string) bool {
		f := parsers.ParseFloat(s)
		if f == nil {
			return false
		}
		v.Displacement = f
		return true
	}},
	{"燃料の種類", textField(func(v *model.Vehicle) *string { return &v.FuelType })},
	{"車両重量", intField(func(v *model.Vehicle) **int { return &v.VehicleWeight })},
	{"車両総重量", intField(func(v *model.Vehicle) **int { return &v.GrossWeight })},
	{"最大積載量", intField(func(v *model.Vehicle) **int { return &v.MaxLoad })},
	{"乗車定員", intField(func(v *model.Vehicle) **int { return &v.SeatingCapacity })},
	{"長さ", intField(func(v *model.Vehicle) **int { return &v.Length })},
	{"幅", intField(func(v *model.Vehicle) **int { return &v.Width })},
	{"高さ", intField(func(v *model.Vehicle) **int { return &v.Height })},
	{"前前軸重", intField(func(v *model.Vehicle) **int { return &v.FrontFrontAxleWeight })},
	{"前後軸重", intField(func(v *model.Vehicle) **int { return &v.FrontRearAxleWeight })},
	{"後前軸重", intField(func(v *model.Vehicle) **int { return &v.RearFrontAxleWeight })},
	{"後後軸重", intField(func(v *model.Vehicle) **int { return &v.RearRearAxleWeight })},
	{"初度登録年月", dateField(func(v *model.Vehicle) **time.Time { return &v.FirstRegistration })},
	{"登録年月日", dateField(func(v *model.Vehicle) **time.Time { return &v.RegistrationDate })},
	{"有効期間の満了する日", dateField(func(v *model.Vehicle) **time.Time { return &v.InspectionExpiry })},
	{"走行距離計表示値", intField(func(v *model.Vehicle) **int { return &v.Mileage })},
	{"用途", textField(func(v *model.Vehicle) *string { return &v.Purpose })},
	{"自家用・事業用の別", textField(func(v *model.Vehicle) *string { return &v.PrivateBusiness })},
	{"車体の形状", textField(func(v *model.Vehicle) *string { return &v.BodyShape })},
	{"型式指定番号", textField(func(v *model.Vehicle) *string { return &v.TypeDesignationNumber })},
	{"類別区分番号", textField(func(v *model.Vehicle) *string { return &v.CategoryNumber })},
	{"所有者の氏名又は名称", textField(func(v *model.Vehicle) *string { return &v.OwnerName })},
	{"所有者の住所", textField(func(v *model.Vehicle) *string { return &v.OwnerAddress })},
	{"使用者の氏名又は名称", textField(func(v *model.Vehicle) *string { return &v.UserName })},
	{"使用者の住所", textField(func(v *model.Vehicle) *string { return &v.UserAddress })},
	{"使用の本拠の位置", textField(func(v *model.Vehicle) *string { return &v.BaseLocation })},
	{"備考", func(v *model.Vehicle, s string) bool {
		v.Notes = s
		return true
	}},
}

// CertificateLabels は取り込み対象の項目名の一覧です。
func CertificateLabels() []string {
	labels := make([]string, len(certificateFields))
	for i, f := range certificateFields {
		labels[i] = f.label
	}
	return labels
}

// ApplyCertificate は車検証JSONの項目を車両に反映し、反映した項目名を返します。
// payload に無い項目と null の項目は変更しません。数値・日付が解釈できない場合も変更しません。
// 元の payload は import_raw に保存します。
func ApplyCertificate(v *model.Vehicle, payload map[string]any, now time.Time) []string {
	var applied []string
	for _, f := range certificateFields {
		s, ok := certificateValue(payload, f.label)
		if !ok {
			continue
		}
		if f.apply(v, s) {
			applied = append(applied, f.label)
		}
	}
	if raw, err := json.Marshal(payload); err == nil {
		v.ImportRaw = string(raw)
	}
	v.ImportSource = ImportSourceCertificate
	at := now
	v.ImportedAt = &at
	return applied
}

// certificateValue は項目の値を文字列で返します。無い・null・空文字列・入れ子の値は ok=false です。
func certificateValue(payload map[string]any, label string) (string, bool) {
	raw, present := payload[label]
	if !present || raw == nil {
		return "", false
	}
	var s string
	switch val := raw.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

var plateRe = regexp.MustCompile(`^(\D+?)\s*(\d{1,3})\s*(\p{Hiragana}|[A-Z])\s*([\d\-・\s]+)$`)

// SplitPlate は "品川300あ12-34" のような登録番号を
// 陸運支局・分類番号・かな・一連番号に分けます。分けられなければ全て空です。
func SplitPlate(reg string) (region, class, kanaChar, number string) {
	s := strings.TrimSpace(kana.NormalizeWidth(reg))
	m := plateRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", "", ""
	}
	number = strings.Join(strings.Fields(m[4]), "")
	return strings.TrimSpace(m[1]), m[2], m[3], number
}
