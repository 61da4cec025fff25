package automation

import (
	"net/http"
	"seibi/httpx"
	"seibi/invoice"
	"seibi/render"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// InvoicePDFHandler は GET /api/invoices/{id}/pdf で請求書を PDF にして返します。
func InvoicePDFHandler(db *sqlx.DB) http.HandlerFunc {
	svc := invoice.NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "請求書IDが不正です", nil)
			return
		}

		view, err := svc.View(id)
		if err != nil {
			httpx.ServiceError(w, err, "請求書の取得に失敗しました")
			return
		}

		log.Printf("Printing invoice PDF: %s", view.InvoiceNumber)
		data, err := PrintPDF(r.Context(), render.RenderInvoiceHTML(view))
		if err != nil {
			log.Printf("PDF Error: %v", err)
			httpx.JSONError(w, http.StatusInternalServerError, "PDFの作成に失敗しました", err.Error())
			return
		}
		httpx.Attachment(w, "application/pdf", view.FileBaseName()+".pdf", data)
	}
}
