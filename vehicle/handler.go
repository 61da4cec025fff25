package vehicle

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"seibi/config"
	"seibi/httpx"
	"seibi/model"
	"strconv"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const maxUploadSize = 32 << 20

func vehicleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "車両IDが不正です", nil)
	}
	return id, ok
}

// ListVehiclesHandler は GET /api/vehicles?clientId=&q= です。
func ListVehiclesHandler(db *sqlx.DB) http.HandlerFunc {
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
		vehicles, err := svc.List(clientID, r.URL.Query().Get("q"))
		if err != nil {
			httpx.ServiceError(w, err, "車両一覧の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, vehicles)
	}
}

func GetVehicleHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := vehicleID(w, r)
		if !ok {
			return
		}
		v, err := svc.Get(id)
		if err != nil {
			httpx.ServiceError(w, err, "車両の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, v)
	}
}

func CreateVehicleHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var v model.Vehicle
		if err := httpx.DecodeJSON(r, &v); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		v.ID = 0
		if err := svc.Create(&v); err != nil {
			httpx.ServiceError(w, err, "車両の登録に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, v)
	}
}

func UpdateVehicleHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := vehicleID(w, r)
		if !ok {
			return
		}
		var v model.Vehicle
		if err := httpx.DecodeJSON(r, &v); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		v.ID = id
		if err := svc.Update(&v); err != nil {
			httpx.ServiceError(w, err, "車両の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, v)
	}
}

func DeleteVehicleHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := vehicleID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(id); err != nil {
			httpx.ServiceError(w, err, "車両の削除に失敗しました")
			return
		}
		httpx.Message(w, "車両を削除しました。")
	}
}

// ImportCSVHandler は POST /api/vehicles/import (multipart: file, encoding, replaceExisting) です。
// replaceExisting は "true" のときだけ既存データを削除します。
func ImportCSVHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "CSVファイルの読み取りに失敗", err.Error())
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "CSVファイルの読み取りに失敗", err.Error())
			return
		}
		encoding := r.FormValue("encoding")
		if encoding == "" {
			encoding = config.GetConfig().CSVEncoding
		}
		opts := ImportOptions{ReplaceExisting: r.FormValue("replaceExisting") == "true"}

		log.Printf("Importing vehicle CSV %s (%d bytes, encoding %s, replace %v)",
			header.Filename, len(raw), encoding, opts.ReplaceExisting)
		result, err := NewImporter(db).ImportFromDelimitedText(r.Context(), raw, encoding, nil, opts)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "CSVの取り込みに失敗しました: "+err.Error(), result)
			return
		}

		message := fmt.Sprintf("インポート完了。\n顧客: %d件\n車両: %d件", result.ClientsImported, result.VehiclesImported)
		if len(result.Errors) > 0 {
			message += fmt.Sprintf("\n%d件のエラーが発生しました。", len(result.Errors))
		}
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"message": message,
			"result":  result,
		})
	}
}

type certificateRequest struct {
	VehicleID int64          `json:"vehicleId"`
	ClientID  int64          `json:"clientId"`
	Payload   map[string]any `json:"payload"`
}

// ImportCertificateHandler は POST /api/vehicles/certificate です。
// payload は車検証の読み取り結果 (項目名 → 値) です。
func ImportCertificateHandler(db *sqlx.DB) http.HandlerFunc {
	svc := NewService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req certificateRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		res, err := svc.ImportCertificate(req.VehicleID, req.ClientID, req.Payload)
		if err != nil {
			httpx.ServiceError(w, err, "車検証の取り込みに失敗しました")
			return
		}
		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		httpx.JSON(w, status, res)
	}
}
