package mappers

import (
	"encoding/json"
	"seibi/model"
	"seibi/parsers"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCertificateOnlyPresentKeys(t *testing.T) {
	mileage := 1000
	v := &model.Vehicle{CarName: "旧車名", Color: "白", Mileage: &mileage}

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"車名": "トヨタ",
		"型式": "ＤＡＡ－ＺＶＷ３０",
		"総排気量又は定格出力": "1.79L",
		"車両重量": "1,310kg",
		"乗車定員": 5,
		"初度登録年月": "平成27年4月",
		"有効期間の満了する日": "令和7年4月9日",
		"自動車登録番号": "品川 300 あ 12-34",
		"走行距離計表示値": null,
		"最大積載量": "-"
	}`), &payload))

	applied := ApplyCertificate(v, payload, time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))

	assert.Equal(t, "トヨタ", v.CarName)
	assert.Equal(t, "DAA-ZVW30", v.ModelCode)
	require.NotNil(t, v.Displacement)
	assert.InDelta(t, 1.79, *v.Displacement, 1e-9)
	require.NotNil(t, v.VehicleWeight)
	assert.Equal(t, 1310, *v.VehicleWeight)
	require.NotNil(t, v.SeatingCapacity)
	assert.Equal(t, 5, *v.SeatingCapacity)
	require.NotNil(t, v.FirstRegistration)
	assert.Equal(t, "2015-04-01", v.FirstRegistration.Format("2006-01-02"))
	require.NotNil(t, v.InspectionExpiry)
	assert.Equal(t, "2025-04-09", v.InspectionExpiry.Format("2006-01-02"))
	assert.Equal(t, "品川", v.PlateRegion)
	assert.Equal(t, "300", v.PlateClass)
	assert.Equal(t, "あ", v.PlateKana)
	assert.Equal(t, "12-34", v.PlateNumber)

	// 無い項目・null・解釈できない値はそのまま
	assert.Equal(t, "白", v.Color)
	require.NotNil(t, v.Mileage)
	assert.Equal(t, 1000, *v.Mileage)
	assert.Nil(t, v.MaxLoad)

	assert.NotContains(t, applied, "走行距離計表示値")
	assert.NotContains(t, applied, "最大積載量")
	assert.Contains(t, applied, "車名")
	assert.Equal(t, ImportSourceCertificate, v.ImportSource)
	assert.Contains(t, v.ImportRaw, "トヨタ")
	require.NotNil(t, v.ImportedAt)
}

func TestSplitPlate(t *testing.T) {
	tests := []struct {
		in                          string
		region, class, kana, number string
	}{
		{"品川300あ1234", "品川", "300", "あ", "1234"},
		{"足立 500 さ 12-34", "足立", "500", "さ", "12-34"},
		{"なにわ５００わ・・・１", "なにわ", "500", "わ", "・・・1"},
		{"不明", "", "", "", ""},
	}
	for _, tt := range tests {
		r, c, k, n := SplitPlate(tt.in)
		assert.Equal(t, []string{tt.region, tt.class, tt.kana, tt.number}, []string{r, c, k, n}, tt.in)
	}
}

func TestVehicleFromRow(t *testing.T) {
	header := "fld_氏名,fld_車名,fld_走行距離,fld_車検満了日,fld_登録番号,fld_総排気量\n"
	r, err := parsers.NewVehicleCSVReader(strings.NewReader(header+"山田,ﾄﾖﾀ,\"12,345km\",R6.5.1,品川300あ1234,不明\n"), nil)
	require.NoError(t, err)
	row, err := r.Next()
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)
	v := VehicleFromRow(&row, 7, at)
	assert.Equal(t, int64(7), v.ClientID)
	assert.Equal(t, "トヨタ", v.CarName)
	require.NotNil(t, v.Mileage)
	assert.Equal(t, 12345, *v.Mileage)
	require.NotNil(t, v.InspectionExpiry)
	assert.Equal(t, "2024-05-01", v.InspectionExpiry.Format("2006-01-02"))
	assert.Nil(t, v.Displacement)
	assert.Equal(t, "品川", v.PlateRegion)
	assert.Equal(t, ImportSourceCSV, v.ImportSource)
	assert.Contains(t, v.ImportRaw, "fld_車名")
}

func TestClientFromRowInfersPrefecture(t *testing.T) {
	r, err := parsers.NewVehicleCSVReader(strings.NewReader("fld_氏名,fld_住所\n山田,大阪府大阪市北区１－１\n"), nil)
	require.NoError(t, err)
	row, err := r.Next()
	require.NoError(t, err)

	c := ClientFromRow(&row)
	assert.Equal(t, "山田", c.Name)
	assert.Equal(t, "", c.Email)
	assert.Equal(t, "大阪府大阪市北区1-1", c.Address)
	assert.Equal(t, 27, c.Prefecture)
}

func TestBuildInvoiceView(t *testing.T) {
	next := time.Date(2027, 3, 14, 0, 0, 0, 0, time.Local)
	inv := &model.Invoice{
		InvoiceNumber:      "2503000701",
		SubNumber:          1,
		InvoiceDate:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local),
		WorkCompletedDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local),
		NextInspectionDate: &next,
		TaxRate:            decimal.NewFromInt(10),
		Details: []model.InvoiceDetail{
			{ItemName: "オイル交換", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(1200), LaborCost: decimal.NewFromInt(1000), IsTaxable: true},
			{ItemName: "自動車重量税", Type: model.DetailTypeStatutory, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(24600)},
			{ItemName: "ワイパー", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(800), IsTaxable: true},
		},
	}
	client := &model.Client{Name: "山田太郎", Prefecture: 13, Address: "港区1-1", Building: "ビル2F"}
	vehicle := &model.Vehicle{PlateRegion: "品川", PlateClass: "300", PlateKana: "あ", PlateNumber: "1234", CarName: "トヨタ"}

	view := BuildInvoiceView(inv, client, vehicle, &model.IssuerInfo{CompanyName: "整備工場"})

	assert.Equal(t, "2503000701-1", view.InvoiceNumber)
	assert.Equal(t, "令和7年3月15日", view.InvoiceDate)
	assert.Equal(t, "令和9年3月14日", view.NextInspectionDate)
	assert.Equal(t, "東京都港区1-1 ビル2F", view.ClientAddress)
	assert.Equal(t, "品川300 あ 1234", view.VehiclePlate)
	assert.Equal(t, "整備工場", view.Issuer.CompanyName)
	require.Len(t, view.Items, 2)
	require.Len(t, view.StatutoryFees, 1)
	assert.Equal(t, 1, view.Items[0].No)
	assert.Equal(t, 2, view.Items[1].No)
	assert.True(t, view.Items[0].SubTotal.Equal(decimal.NewFromInt(5800)))
	assert.Equal(t, "自動車重量税", view.StatutoryFees[0].ItemName)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(decimal.Zero))
	assert.Equal(t, "999", FormatAmount(decimal.NewFromInt(999)))
	assert.Equal(t, "1,000", FormatAmount(decimal.NewFromInt(1000)))
	assert.Equal(t, "1,234,567", FormatAmount(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "-12,345", FormatAmount(decimal.NewFromInt(-12345)))
}

func TestFormatWareki(t *testing.T) {
	assert.Equal(t, "令和元年5月1日", FormatWareki(time.Date(2019, 5, 1, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "平成31年4月30日", FormatWareki(time.Date(2019, 4, 30, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "昭和64年1月7日", FormatWareki(time.Date(1989, 1, 7, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "", FormatWareki(time.Time{}))
}
