package invoice

import (
	"errors"
	"fmt"
	"net/http"
	"seibi/database"
	"seibi/httpx"
	"seibi/mailer"
	"seibi/render"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func invoiceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "請求書IDが不正です", nil)
	}
	return id, ok
}

// writeServiceError は採番の上限を 409 にし、それ以外を httpx.ServiceError に任せます。
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrSequenceExhausted):
		httpx.JSONError(w, http.StatusConflict, "今月のこの顧客の請求書番号が上限 (99件) に達しました", err.Error())
	case errors.Is(err, ErrInvalidClientID):
		httpx.JSONError(w, http.StatusBadRequest, "顧客IDが採番できる範囲 (1〜9999) にありません", err.Error())
	default:
		httpx.ServiceError(w, err, msg)
	}
}

// ListInvoicesHandler は GET /api/invoices?clientId= です。
func ListInvoicesHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var clientID int64
		if s := r.URL.Query().Get("clientId"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "clientId が不正です", s)
				return
			}
			clientID = id
		}
		invoices, err := svc.List(clientID)
		if err != nil {
			writeServiceError(w, err, "請求書一覧の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, invoices)
	}
}

func CreateInvoiceHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var in InvoiceInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		inv, err := svc.Create(in)
		if err != nil {
			writeServiceError(w, err, "請求書の作成に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, inv)
	}
}

func GetInvoiceHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		inv, err := svc.Get(id)
		if err != nil {
			writeServiceError(w, err, "請求書の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func UpdateInvoiceHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		var in InvoiceInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		inv, err := svc.Update(id, in)
		if err != nil {
			writeServiceError(w, err, "請求書の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func DeleteInvoiceHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(id); err != nil {
			writeServiceError(w, err, "請求書の削除に失敗しました")
			return
		}
		httpx.Message(w, "請求書を削除しました。")
	}
}

// AddDetailHandler は POST /api/invoices/{id}/details です。
func AddDetailHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		var in DetailInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		detail, err := svc.AddDetail(id, in)
		if err != nil {
			writeServiceError(w, err, "明細の追加に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, detail)
	}
}

// UpdateDetailHandler は PUT /api/invoices/{id}/details/{detailId} です。
func UpdateDetailHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		detailID, ok := httpx.PathID(r, "detailId")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "明細IDが不正です", nil)
			return
		}
		var in DetailInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		detail, err := svc.UpdateDetail(id, detailID, in)
		if err != nil {
			writeServiceError(w, err, "明細の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, detail)
	}
}

func DeleteDetailHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		detailID, ok := httpx.PathID(r, "detailId")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "明細IDが不正です", nil)
			return
		}
		if err := svc.DeleteDetail(id, detailID); err != nil {
			writeServiceError(w, err, "明細の削除に失敗しました")
			return
		}
		httpx.Message(w, "明細を削除しました。")
	}
}

// AddStatutoryFeesHandler は POST /api/invoices/{id}/statutory-fees {"categoryId": n} です。
func AddStatutoryFeesHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		var req struct {
			CategoryID int64 `json:"categoryId"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil || req.CategoryID <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "車両区分を指定してください", nil)
			return
		}
		added, err := svc.AddStatutoryFees(id, req.CategoryID)
		if err != nil {
			writeServiceError(w, err, "法定費用の追加に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, added)
	}
}

// SplitInvoiceHandler は POST /api/invoices/{id}/split {"detailIds": [...]} です。
func SplitInvoiceHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		var req struct {
			DetailIDs []int64 `json:"detailIds"`
		}
		if r.ContentLength != 0 {
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
				return
			}
		}
		inv, err := svc.Split(id, req.DetailIDs)
		if err != nil {
			writeServiceError(w, err, "請求書の分割に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, inv)
	}
}

// ExportExcelHandler は GET /api/invoices/{id}/excel で xlsx を返します。
func ExportExcelHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		view, err := svc.View(id)
		if err != nil {
			writeServiceError(w, err, "請求書の取得に失敗しました")
			return
		}
		data, err := render.RenderInvoiceXLSX(view)
		if err != nil {
			httpx.ServiceError(w, err, "Excelファイルの作成に失敗しました")
			return
		}
		httpx.Attachment(w, xlsxContentType, view.FileBaseName()+".xlsx", data)
	}
}

// PrintViewHandler は GET /api/invoices/{id}/print で印刷用 HTML を返します。
func PrintViewHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		view, err := svc.View(id)
		if err != nil {
			writeServiceError(w, err, "請求書の取得に失敗しました")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(render.RenderInvoiceHTML(view))); err != nil {
			log.Warnf("failed to write invoice html: %v", err)
		}
	}
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailInvoiceHandler は POST /api/invoices/{id}/email で xlsx を添付して送ります。
// 宛先の指定が無ければ顧客のメールアドレスに送ります。
func EmailInvoiceHandler(db *sqlx.DB, sender mailer.Sender) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := invoiceID(w, r)
		if !ok {
			return
		}
		var req emailRequest
		if r.ContentLength != 0 {
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
				return
			}
		}

		inv, err := svc.Get(id)
		if err != nil {
			writeServiceError(w, err, "請求書の取得に失敗しました")
			return
		}
		to := strings.TrimSpace(req.To)
		if to == "" {
			client, err := database.GetClient(db, inv.ClientID)
			if err != nil {
				writeServiceError(w, err, "顧客の取得に失敗しました")
				return
			}
			to = client.Email
		}
		if to == "" {
			httpx.JSONError(w, http.StatusBadRequest, "送信先のメールアドレスがありません", nil)
			return
		}

		view, err := svc.View(id)
		if err != nil {
			writeServiceError(w, err, "請求書の取得に失敗しました")
			return
		}
		data, err := render.RenderInvoiceXLSX(view)
		if err != nil {
			httpx.ServiceError(w, err, "Excelファイルの作成に失敗しました")
			return
		}

		subject := req.Subject
		if subject == "" {
			subject = fmt.Sprintf("御請求書 (%s) のご送付", view.InvoiceNumber)
		}
		body := req.Body
		if body == "" {
			body = fmt.Sprintf("%s 様\n\nいつもありがとうございます。\n御請求書 %s をお送りします。\n\n%s",
				view.ClientName, view.InvoiceNumber, view.Issuer.CompanyName)
		}

		err = sender.Send(r.Context(), mailer.Message{
			To:      []string{to},
			Subject: subject,
			Body:    body,
			Attachments: []mailer.Attachment{{
				Filename:    view.FileBaseName() + ".xlsx",
				ContentType: xlsxContentType,
				Data:        data,
			}},
		})
		if errors.Is(err, mailer.ErrNotConfigured) {
			httpx.JSONError(w, http.StatusBadRequest, "メール設定が登録されていません", nil)
			return
		}
		if err != nil {
			httpx.ServiceError(w, err, "メールの送信に失敗しました")
			return
		}
		log.Printf("Invoice %s emailed to %s", view.InvoiceNumber, to)
		httpx.Message(w, fmt.Sprintf("%s に請求書を送信しました。", to))
	}
}
