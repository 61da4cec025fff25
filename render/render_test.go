package render

import (
	"bytes"
	"seibi/mappers"
	"seibi/model"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleView() mappers.InvoiceView {
	return mappers.InvoiceView{
		Title:         "御請求書",
		InvoiceNumber: "2503000701",
		InvoiceDate:   "令和7年3月15日",
		Issuer:        model.IssuerInfo{CompanyName: "山田自動車", RegistrationNumber: "T1234567890123"},
		ClientName:    "田中 <太郎>",
		ClientAddress: "東京都千代田区1-1",
		VehiclePlate:  "品川500 あ 1234",
		Items: []mappers.InvoiceLineView{
			{No: 1, ItemName: "エンジンオイル", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(1000),
				LaborCost: decimal.NewFromInt(500), SubTotal: decimal.NewFromInt(4500), IsTaxable: true},
			{No: 2, ItemName: "オイルフィルター", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1200),
				LaborCost: decimal.Zero, SubTotal: decimal.NewFromInt(1200), IsTaxable: true},
		},
		StatutoryFees: []mappers.InvoiceLineView{
			{No: 1, ItemName: "重量税", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(16400),
				SubTotal: decimal.NewFromInt(16400)},
		},
		TaxRate:            decimal.NewFromInt(10),
		TaxableSubTotal:    decimal.NewFromInt(5700),
		NonTaxableSubTotal: decimal.NewFromInt(16400),
		Tax:                decimal.NewFromInt(570),
		Total:              decimal.NewFromInt(22670),
	}
}

func TestRenderInvoiceHTML(t *testing.T) {
	out := RenderInvoiceHTML(sampleView())

	assert.Contains(t, out, "<h1>御請求書</h1>")
	assert.Contains(t, out, "2503000701")
	assert.Contains(t, out, "田中 &lt;太郎&gt; 様")
	assert.Contains(t, out, "エンジンオイル")
	assert.Contains(t, out, "重量税 ※")
	assert.Contains(t, out, "¥22,670")
	assert.Contains(t, out, "登録番号 T1234567890123")
	assert.NotContains(t, out, "<太郎>")
}

func TestRenderInvoiceHTMLWithoutLines(t *testing.T) {
	v := sampleView()
	v.Items = nil
	v.StatutoryFees = nil

	out := RenderInvoiceHTML(v)
	assert.Contains(t, out, "明細はありません。")
	assert.NotContains(t, out, "<caption>法定費用</caption>")
}

func TestRenderInvoiceXLSX(t *testing.T) {
	data, err := RenderInvoiceXLSX(sampleView())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(axis string) string {
		v, err := f.GetCellValue(SheetName, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "御請求書", get("A1"))
	assert.Equal(t, "田中 <太郎> 様", get("A3"))
	assert.Equal(t, "請求書番号 2503000701", get("E3"))
	assert.Equal(t, "品名", get("B15"))
	assert.Equal(t, "エンジンオイル", get(cell(2, ItemStartRow)))
	assert.Equal(t, "オイルフィルター", get(cell(2, ItemStartRow+1)))

	// 明細2行の次に法定費用の見出しと表
	assert.Equal(t, "法定費用", get(cell(1, ItemStartRow+2)))
	assert.Equal(t, "重量税 ※", get(cell(2, ItemStartRow+4)))

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	found := false
	for _, r := range rows {
		if len(r) >= 7 && r[5] == "合計金額" {
			found = true
			assert.Equal(t, "22670", r[6])
		}
	}
	assert.True(t, found, "合計金額の行がありません")
}
