package client

import (
	"errors"
	"fmt"
	"net/http"
	"seibi/config"
	"seibi/httpx"
	"seibi/model"

	"github.com/jmoiron/sqlx"
)

const maxUploadSize = 32 << 20

func clientID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "顧客IDが不正です", nil)
	}
	return id, ok
}

// ListClientsHandler は GET /api/clients?q= です。
func ListClientsHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := svc.Search(r.URL.Query().Get("q"))
		if err != nil {
			httpx.ServiceError(w, err, "顧客一覧の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, clients)
	}
}

func GetClientHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := clientID(w, r)
		if !ok {
			return
		}
		c, err := svc.Get(id)
		if err != nil {
			httpx.ServiceError(w, err, "顧客の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, c)
	}
}

func CreateClientHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var c model.Client
		if err := httpx.DecodeJSON(r, &c); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		c.ID = 0
		if err := svc.Create(&c); err != nil {
			httpx.ServiceError(w, err, "顧客の登録に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, c)
	}
}

func UpdateClientHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := clientID(w, r)
		if !ok {
			return
		}
		var c model.Client
		if err := httpx.DecodeJSON(r, &c); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		c.ID = id
		if err := svc.Update(&c); err != nil {
			httpx.ServiceError(w, err, "顧客の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, c)
	}
}

func DeleteClientHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := clientID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(id); err != nil {
			httpx.ServiceError(w, err, "顧客の削除に失敗しました")
			return
		}
		httpx.Message(w, "顧客を削除しました。")
	}
}

// ImportClientsHandler は POST /api/clients/import (multipart: file, encoding) です。
func ImportClientsHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "CSVファイルの読み取りに失敗", err.Error())
			return
		}
		defer file.Close()

		encoding := r.FormValue("encoding")
		if encoding == "" {
			encoding = config.GetConfig().CSVEncoding
		}
		res, err := svc.ImportCSV(file, encoding)
		if errors.Is(err, ErrInvalidFile) {
			httpx.JSONError(w, http.StatusBadRequest, "CSVファイルの解析に失敗", err.Error())
			return
		}
		if err != nil {
			httpx.ServiceError(w, err, "顧客CSVの取り込みに失敗しました")
			return
		}

		message := fmt.Sprintf("インポート完了。\n新規: %d件\n更新: %d件", res.Created, res.Updated)
		if len(res.Errors) > 0 {
			message += fmt.Sprintf("\n%d件のエラーまたはスキップが発生しました。", len(res.Errors))
		}
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"message": message,
			"result":  res,
		})
	}
}
