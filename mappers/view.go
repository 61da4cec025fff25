package mappers

import (
	"fmt"
	"seibi/model"
	"seibi/prefecture"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLineView は請求書の1明細の表示用です。
type InvoiceLineView struct {
	No           int             `json:"no"`
	ItemName     string          `json:"itemName"`
	RepairMethod string          `json:"repairMethod"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	SubTotal     decimal.Decimal `json:"subTotal"`
	IsTaxable    bool            `json:"isTaxable"`
}

// InvoiceView は請求書 (Excel / HTML / PDF) の描画に必要な値をまとめたものです。
type InvoiceView struct {
	Title              string `json:"title"`
	InvoiceNumber      string `json:"invoiceNumber"`
	InvoiceDate        string `json:"invoiceDate"`
	WorkCompletedDate  string `json:"workCompletedDate"`
	NextInspectionDate string `json:"nextInspectionDate"`

	Issuer model.IssuerInfo `json:"issuer"`

	ClientName    string `json:"clientName"`
	ClientZip     string `json:"clientZip"`
	ClientAddress string `json:"clientAddress"`
	ClientPhone   string `json:"clientPhone"`

	VehiclePlate         string `json:"vehiclePlate"`
	VehicleCarName       string `json:"vehicleCarName"`
	VehicleModelCode     string `json:"vehicleModelCode"`
	VehicleChassisNumber string `json:"vehicleChassisNumber"`
	VehicleFirstReg      string `json:"vehicleFirstReg"`
	Mileage              string `json:"mileage"`

	Items         []InvoiceLineView `json:"items"`
	StatutoryFees []InvoiceLineView `json:"statutoryFees"`

	TaxRate            decimal.Decimal `json:"taxRate"`
	TaxableSubTotal    decimal.Decimal `json:"taxableSubTotal"`
	NonTaxableSubTotal decimal.Decimal `json:"nonTaxableSubTotal"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	Notes              string          `json:"notes"`
}

// FileBaseName はダウンロード時のファイル名 (拡張子なし) です。
func (v *InvoiceView) FileBaseName() string {
	return fmt.Sprintf("請求書_%s_%s", v.InvoiceNumber, v.ClientName)
}

// BuildInvoiceView は請求書と関連する顧客・車両・発行元から表示用データを組み立てます。
// vehicle は nil でも構いません。明細は法定費用とそれ以外に分けます。
func BuildInvoiceView(inv *model.Invoice, client *model.Client, vehicle *model.Vehicle, issuer *model.IssuerInfo) InvoiceView {
	view := InvoiceView{
		Title:              "御請求書",
		InvoiceNumber:      FormatInvoiceNumber(inv.InvoiceNumber, inv.SubNumber),
		InvoiceDate:        FormatWareki(inv.InvoiceDate),
		WorkCompletedDate:  FormatWareki(inv.WorkCompletedDate),
		NextInspectionDate: formatOptionalDate(inv.NextInspectionDate),
		TaxRate:            inv.TaxRate,
		TaxableSubTotal:    inv.TaxableSubTotal,
		NonTaxableSubTotal: inv.NonTaxableSubTotal,
		Tax:                inv.Tax,
		Total:              inv.Total,
		Notes:              inv.Notes,
		Items:              []InvoiceLineView{},
		StatutoryFees:      []InvoiceLineView{},
	}
	if inv.Mileage != nil {
		view.Mileage = fmt.Sprintf("%s km", FormatAmount(decimal.NewFromInt(int64(*inv.Mileage))))
	}
	if issuer != nil {
		view.Issuer = *issuer
	}
	if client != nil {
		view.ClientName = client.Name
		view.ClientZip = client.Zip
		view.ClientAddress = strings.TrimSpace(prefixPrefecture(client.Prefecture, client.Address) + " " + client.Building)
		view.ClientPhone = client.Phone
	}
	if vehicle != nil {
		view.VehiclePlate = vehicle.PlateDisplay()
		view.VehicleCarName = strings.TrimSpace(vehicle.CarName + " " + vehicle.ModelName)
		view.VehicleModelCode = vehicle.ModelCode
		view.VehicleChassisNumber = vehicle.ChassisNumber
		view.VehicleFirstReg = formatOptionalDate(vehicle.FirstRegistration)
		if view.Mileage == "" && vehicle.Mileage != nil {
			view.Mileage = fmt.Sprintf("%s km", FormatAmount(decimal.NewFromInt(int64(*vehicle.Mileage))))
		}
	}

	for i := range inv.Details {
		d := &inv.Details[i]
		line := InvoiceLineView{
			ItemName:     d.ItemName,
			RepairMethod: d.RepairMethod,
			Quantity:     d.Quantity,
			UnitPrice:    d.UnitPrice,
			LaborCost:    d.LaborCost,
			SubTotal:     d.SubTotal(),
			IsTaxable:    d.IsTaxable,
		}
		if d.IsStatutory() {
			line.No = len(view.StatutoryFees) + 1
			view.StatutoryFees = append(view.StatutoryFees, line)
		} else {
			line.No = len(view.Items) + 1
			view.Items = append(view.Items, line)
		}
	}
	return view
}

// 住所に都道府県名が含まれていなければ先頭に付けます。
func prefixPrefecture(code int, address string) string {
	name := prefecture.ResolveName(code)
	if name == "" || strings.HasPrefix(address, name) {
		return address
	}
	return name + address
}

// FormatInvoiceNumber は枝番が1以上のとき "番号-枝番" にします。
func FormatInvoiceNumber(number string, sub int) string {
	if sub <= 0 {
		return number
	}
	return fmt.Sprintf("%s-%d", number, sub)
}

// FormatAmount は金額を3桁区切りの整数表記にします (小数は切り捨て)。
func FormatAmount(d decimal.Decimal) string {
	s := d.Truncate(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

type era struct {
	name  string
	start time.Time
}

var eras = []era{
	{"令和", time.Date(2019, 5, 1, 0, 0, 0, 0, time.Local)},
	{"平成", time.Date(1989, 1, 8, 0, 0, 0, 0, time.Local)},
	{"昭和", time.Date(1926, 12, 25, 0, 0, 0, 0, time.Local)},
	{"大正", time.Date(1912, 7, 30, 0, 0, 0, 0, time.Local)},
	{"明治", time.Date(1868, 1, 25, 0, 0, 0, 0, time.Local)},
}

// FormatWareki は日付を和暦 (令和7年3月15日) で表します。ゼロ値は空文字列です。
func FormatWareki(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	for _, e := range eras {
		if !day.Before(e.start) {
			y := t.Year() - e.start.Year() + 1
			return fmt.Sprintf("%s%s年%d月%d日", e.name, eraYear(y), t.Month(), t.Day())
		}
	}
	return t.Format("2006年1月2日")
}

func eraYear(y int) string {
	if y == 1 {
		return "元"
	}
	return fmt.Sprintf("%d", y)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatWareki(*t)
}
