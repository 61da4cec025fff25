package render

import (
	"fmt"
	"seibi/mappers"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName は請求書シートの名前です。
	SheetName = "請求書"
	// ItemStartRow は明細表の最初のデータ行です (15行目が見出し)。
	ItemStartRow = 16

	amountFormat = "#,##0"
)

var lineHeaders = []string{"No", "品名", "修理方法", "数量", "単価", "工賃", "金額"}

type sheetStyles struct {
	title, bold, header, cell, number, total int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	numFmt := amountFormat

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 18},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E7E6E6"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.cell, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, err
	}
	if s.number, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &numFmt}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       border,
		CustomNumFmt: &numFmt,
	}); err != nil {
		return s, err
	}
	return s, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// RenderInvoiceXLSX は請求書を Excel ファイル (xlsx) にします。
// 1行目にタイトル、3行目から宛先 (A列) と発行元 (E列)、10行目から車両、
// 15行目に明細の見出し、16行目から明細、その後に法定費用と合計を置きます。
func RenderInvoiceXLSX(v mappers.InvoiceView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("シート名の設定に失敗: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("スタイルの作成に失敗: %w", err)
	}

	w := &sheetWriter{f: f}
	for col, width := range map[string]float64{"A": 5, "B": 30, "C": 14, "D": 8, "E": 12, "F": 12, "G": 14} {
		w.check(f.SetColWidth(SheetName, col, col, width))
	}

	w.set("A1", v.Title)
	w.check(f.MergeCell(SheetName, "A1", "G1"))
	w.style("A1", "G1", st.title)

	// 宛先
	w.set("A3", v.ClientName+" 様")
	w.style("A3", "A3", st.bold)
	if v.ClientZip != "" {
		w.set("A4", "〒"+v.ClientZip)
	}
	w.set("A5", v.ClientAddress)
	if v.ClientPhone != "" {
		w.set("A6", "TEL "+v.ClientPhone)
	}

	// 発行元
	w.set("E3", "請求書番号 "+v.InvoiceNumber)
	w.set("E4", "請求日 "+v.InvoiceDate)
	w.set("E5", v.Issuer.CompanyName)
	w.style("E5", "E5", st.bold)
	w.set("E6", v.Issuer.Representative)
	w.set("E7", joinNonEmpty("〒"+v.Issuer.Zip, v.Issuer.Address))
	w.set("E8", "TEL "+v.Issuer.Phone+"  FAX "+v.Issuer.Fax)
	if v.Issuer.RegistrationNumber != "" {
		w.set("E9", "登録番号 "+v.Issuer.RegistrationNumber)
	}

	// 車両
	vehicleRows := [][2]string{
		{"登録番号", v.VehiclePlate},
		{"車名", v.VehicleCarName},
		{"型式 / 車台番号", joinNonEmpty(v.VehicleModelCode, v.VehicleChassisNumber)},
		{"初度登録 / 走行距離", joinNonEmpty(v.VehicleFirstReg, v.Mileage)},
		{"作業完了日 / 次回車検", joinNonEmpty(v.WorkCompletedDate, v.NextInspectionDate)},
	}
	for i, kv := range vehicleRows {
		row := 10 + i
		w.set(cell(1, row), kv[0])
		w.set(cell(3, row), kv[1])
		w.check(f.MergeCell(SheetName, cell(1, row), cell(2, row)))
	}

	row := w.writeLineTable(ItemStartRow-1, v.Items, st)
	if len(v.StatutoryFees) > 0 {
		row++
		w.set(cell(1, row), "法定費用")
		w.style(cell(1, row), cell(1, row), st.bold)
		row = w.writeLineTable(row+1, v.StatutoryFees, st)
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"課税対象計", v.TaxableSubTotal.InexactFloat64()},
		{fmt.Sprintf("消費税 (%s%%)", v.TaxRate.String()), v.Tax.InexactFloat64()},
		{"非課税計", v.NonTaxableSubTotal.InexactFloat64()},
		{"合計金額", v.Total.InexactFloat64()},
	}
	for _, t := range totals {
		w.set(cell(6, row), t.label)
		w.set(cell(7, row), t.value)
		w.style(cell(6, row), cell(6, row), st.cell)
		w.style(cell(7, row), cell(7, row), st.number)
		row++
	}
	w.style(cell(6, row-1), cell(7, row-1), st.total)

	if v.Notes != "" {
		row++
		w.set(cell(1, row), "備考")
		w.set(cell(2, row), v.Notes)
	}
	if v.Issuer.BankInfo != "" {
		row++
		w.set(cell(1, row), "お振込先")
		w.set(cell(2, row), v.Issuer.BankInfo)
	}

	if w.err != nil {
		return nil, fmt.Errorf("請求書シートの作成に失敗: %w", w.err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx の書き出しに失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter は最初のエラーだけを保持してセルの書き込みを続けます。
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) check(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *sheetWriter) set(axis string, value any) {
	w.check(w.f.SetCellValue(SheetName, axis, value))
}

func (w *sheetWriter) style(from, to string, style int) {
	w.check(w.f.SetCellStyle(SheetName, from, to, style))
}

// writeLineTable は headerRow に見出し、その次の行から明細を書き、最後に書いた行を返します。
func (w *sheetWriter) writeLineTable(headerRow int, lines []mappers.InvoiceLineView, st sheetStyles) int {
	for i, h := range lineHeaders {
		w.set(cell(i+1, headerRow), h)
	}
	w.style(cell(1, headerRow), cell(len(lineHeaders), headerRow), st.header)

	row := headerRow
	for _, l := range lines {
		row++
		name := l.ItemName
		if !l.IsTaxable {
			name += " ※"
		}
		w.set(cell(1, row), l.No)
		w.set(cell(2, row), name)
		w.set(cell(3, row), l.RepairMethod)
		w.set(cell(4, row), l.Quantity.InexactFloat64())
		w.set(cell(5, row), l.UnitPrice.InexactFloat64())
		w.set(cell(6, row), l.LaborCost.InexactFloat64())
		w.set(cell(7, row), l.SubTotal.InexactFloat64())
		w.style(cell(1, row), cell(3, row), st.cell)
		w.style(cell(4, row), cell(4, row), st.cell)
		w.style(cell(5, row), cell(7, row), st.number)
	}
	return row
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" || p == "〒" {
			continue
		}
		if out != "" {
			out += " / "
		}
		out += p
	}
	return out
}
