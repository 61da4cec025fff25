package loader

import (
	"fmt"
	"net/http"
	"seibi/config"
	"seibi/httpx"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// UploadPartsCSVHandler は部品マスタCSVのアップロードを受け付けて取り込みます。
func UploadPartsCSVHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "ファイルの解析に失敗しました", err.Error())
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "ファイルが指定されていません", err.Error())
			return
		}
		defer file.Close()

		encoding := r.FormValue("encoding")
		if encoding == "" {
			encoding = config.GetConfig().CSVEncoding
		}

		log.Println("HTTP request received: Loading parts CSV...")
		n, err := LoadPartsCSV(db, file, encoding)
		if err != nil {
			log.Printf("parts CSV load failed: %v", err)
			httpx.JSONError(w, http.StatusInternalServerError, "部品マスタの取り込みに失敗しました", err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"message": fmt.Sprintf("部品マスタを %d 件取り込みました。", n),
			"count":   n,
		})
	}
}
