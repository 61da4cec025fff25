package render

import (
	"fmt"
	"html"
	"seibi/mappers"
	"strings"

	"github.com/shopspring/decimal"
)

const invoiceCSS = `
body { font-family: "Noto Sans JP", "Yu Gothic", sans-serif; font-size: 11px; margin: 0; }
.page { width: 190mm; margin: 0 auto; }
h1 { text-align: center; letter-spacing: 0.5em; font-size: 22px; margin: 8px 0 16px; }
.header { display: flex; justify-content: space-between; }
.client .name { font-size: 16px; border-bottom: 1px solid #000; padding-bottom: 2px; }
.issuer { text-align: right; }
table { border-collapse: collapse; width: 100%; margin-top: 10px; }
th, td { border: 1px solid #444; padding: 3px 5px; }
th { background: #eee; }
.right { text-align: right; }
.center { text-align: center; }
.totals { width: 45%; margin-left: auto; }
.notes { margin-top: 12px; white-space: pre-wrap; }
`

func esc(s string) string {
	return html.EscapeString(s)
}

func amount(d decimal.Decimal) string {
	return mappers.FormatAmount(d)
}

// RenderInvoiceHTML は印刷・PDF 用に請求書全体の HTML を生成します。
func RenderInvoiceHTML(v mappers.InvoiceView) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8">`)
	sb.WriteString(fmt.Sprintf(`<title>%s</title>`, esc(v.FileBaseName())))
	sb.WriteString(`<style>` + invoiceCSS + `</style></head><body><div class="page">`)
	sb.WriteString(fmt.Sprintf(`<h1>%s</h1>`, esc(v.Title)))

	// 宛先と発行元
	sb.WriteString(`<div class="header"><div class="client">`)
	sb.WriteString(fmt.Sprintf(`<div class="name">%s 様</div>`, esc(v.ClientName)))
	if v.ClientZip != "" {
		sb.WriteString(fmt.Sprintf(`<div>〒%s</div>`, esc(v.ClientZip)))
	}
	sb.WriteString(fmt.Sprintf(`<div>%s</div>`, esc(v.ClientAddress)))
	if v.ClientPhone != "" {
		sb.WriteString(fmt.Sprintf(`<div>TEL %s</div>`, esc(v.ClientPhone)))
	}
	sb.WriteString(`</div><div class="issuer">`)
	sb.WriteString(fmt.Sprintf(`<div>請求書番号 %s</div>`, esc(v.InvoiceNumber)))
	sb.WriteString(fmt.Sprintf(`<div>請求日 %s</div>`, esc(v.InvoiceDate)))
	sb.WriteString(fmt.Sprintf(`<div><strong>%s</strong></div>`, esc(v.Issuer.CompanyName)))
	if v.Issuer.Representative != "" {
		sb.WriteString(fmt.Sprintf(`<div>%s</div>`, esc(v.Issuer.Representative)))
	}
	if v.Issuer.Zip != "" {
		sb.WriteString(fmt.Sprintf(`<div>〒%s</div>`, esc(v.Issuer.Zip)))
	}
	sb.WriteString(fmt.Sprintf(`<div>%s</div>`, esc(v.Issuer.Address)))
	sb.WriteString(fmt.Sprintf(`<div>TEL %s FAX %s</div>`, esc(v.Issuer.Phone), esc(v.Issuer.Fax)))
	if v.Issuer.RegistrationNumber != "" {
		sb.WriteString(fmt.Sprintf(`<div>登録番号 %s</div>`, esc(v.Issuer.RegistrationNumber)))
	}
	sb.WriteString(`</div></div>`)

	// 車両
	sb.WriteString(`<table class="vehicle"><tr>`)
	sb.WriteString(`<th>登録番号</th><th>車名</th><th>型式</th><th>車台番号</th><th>初度登録</th><th>走行距離</th></tr><tr>`)
	for _, s := range []string{v.VehiclePlate, v.VehicleCarName, v.VehicleModelCode, v.VehicleChassisNumber, v.VehicleFirstReg, v.Mileage} {
		sb.WriteString(fmt.Sprintf(`<td class="center">%s</td>`, esc(s)))
	}
	sb.WriteString(`</tr></table>`)
	sb.WriteString(fmt.Sprintf(`<div>作業完了日 %s　次回車検 %s</div>`, esc(v.WorkCompletedDate), esc(v.NextInspectionDate)))

	writeLines(&sb, "整備明細", v.Items)
	if len(v.StatutoryFees) > 0 {
		writeLines(&sb, "法定費用", v.StatutoryFees)
	}

	sb.WriteString(`<table class="totals">`)
	sb.WriteString(fmt.Sprintf(`<tr><th>課税対象計</th><td class="right">%s</td></tr>`, amount(v.TaxableSubTotal)))
	sb.WriteString(fmt.Sprintf(`<tr><th>消費税 (%s%%)</th><td class="right">%s</td></tr>`, v.TaxRate.String(), amount(v.Tax)))
	sb.WriteString(fmt.Sprintf(`<tr><th>非課税計</th><td class="right">%s</td></tr>`, amount(v.NonTaxableSubTotal)))
	sb.WriteString(fmt.Sprintf(`<tr><th>合計金額</th><td class="right"><strong>¥%s</strong></td></tr>`, amount(v.Total)))
	sb.WriteString(`</table>`)

	if v.Notes != "" {
		sb.WriteString(fmt.Sprintf(`<div class="notes">%s</div>`, esc(v.Notes)))
	}
	if v.Issuer.BankInfo != "" {
		sb.WriteString(fmt.Sprintf(`<div class="notes">お振込先: %s</div>`, esc(v.Issuer.BankInfo)))
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

func writeLines(sb *strings.Builder, caption string, lines []mappers.InvoiceLineView) {
	sb.WriteString(fmt.Sprintf(`<table class="lines"><caption>%s</caption>`, esc(caption)))
	sb.WriteString(`<thead><tr><th>No</th><th>品名</th><th>修理方法</th><th>数量</th><th>単価</th><th>工賃</th><th>金額</th></tr></thead><tbody>`)
	if len(lines) == 0 {
		sb.WriteString(`<tr><td colspan="7" class="center">明細はありません。</td></tr>`)
	}
	for _, l := range lines {
		name := esc(l.ItemName)
		if !l.IsTaxable {
			name += " ※"
		}
		sb.WriteString(`<tr>`)
		sb.WriteString(fmt.Sprintf(`<td class="center">%d</td>`, l.No))
		sb.WriteString(fmt.Sprintf(`<td>%s</td>`, name))
		sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(l.RepairMethod)))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, l.Quantity.String()))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, amount(l.UnitPrice)))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, amount(l.LaborCost)))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, amount(l.SubTotal)))
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</tbody></table>`)
}
