package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"seibi/httpx"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const maxRestoreSize = 256 << 20

// ExportHandler は GET /api/backup です。
func ExportHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		env, err := Export(db, now)
		if err != nil {
			httpx.ServiceError(w, err, "バックアップの作成に失敗しました")
			return
		}
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "バックアップの作成に失敗しました", err.Error())
			return
		}
		filename := fmt.Sprintf("seibi_backup_%s.json", now.Format("20060102_150405"))
		httpx.Attachment(w, "application/json", filename, data)
	}
}

// RestoreHandler は POST /api/restore です。本文はバックアップJSONそのもの、
// または multipart の file です。
func RestoreHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRestoreSize)
		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			file, _, err := r.FormFile("file")
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "バックアップファイルの読み取りに失敗", err.Error())
				return
			}
			defer file.Close()
			src = file
		}

		env, err := Decode(src)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "バックアップファイルを読み込めません", err.Error())
			return
		}
		if err := Restore(db, env); err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "復元に失敗しました", err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"message": "復元が完了しました。",
			"counts":  env.Tables.Counts(),
		})
	}
}
