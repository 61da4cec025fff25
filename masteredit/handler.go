package masteredit

import (
	"errors"
	"net/http"
	"seibi/database"
	"seibi/httpx"
	"seibi/model"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// パスワードは応答に含めない
const maskedPassword = "********"

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := httpx.PathID(r, name)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "IDが不正です", r.PathValue(name))
	}
	return id, ok
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
		return false
	}
	return true
}

// --- parts ---

// ListPartsHandler は GET /api/parts?q= です。
func ListPartsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts, err := database.SearchParts(db, r.URL.Query().Get("q"))
		if err != nil {
			httpx.ServiceError(w, err, "部品一覧の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, parts)
	}
}

func CreatePartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.Part
		if !decode(w, r, &p) {
			return
		}
		p.ID = 0
		if err := validatePart(&p); err != nil {
			httpx.ServiceError(w, err, "部品の登録に失敗しました")
			return
		}
		if err := database.CreatePart(db, &p); err != nil {
			httpx.ServiceError(w, err, "部品の登録に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, p)
	}
}

func UpdatePartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var p model.Part
		if !decode(w, r, &p) {
			return
		}
		p.ID = id
		if err := validatePart(&p); err != nil {
			httpx.ServiceError(w, err, "部品の更新に失敗しました")
			return
		}
		if err := database.UpdatePart(db, &p); err != nil {
			httpx.ServiceError(w, err, "部品の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, p)
	}
}

// DeletePartHandler は部品を削除します。請求明細の part_id は NULL になり、品名・単価は残ります。
func DeletePartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := database.DeletePart(db, id); err != nil {
			httpx.ServiceError(w, err, "部品の削除に失敗しました")
			return
		}
		httpx.Message(w, "部品を削除しました。")
	}
}

// --- vehicle categories ---

func ListCategoriesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := database.GetVehicleCategories(db)
		if err != nil {
			httpx.ServiceError(w, err, "車両区分の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, cats)
	}
}

func CreateCategoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c model.VehicleCategory
		if !decode(w, r, &c) {
			return
		}
		c.ID = 0
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			if err := validateCategory(tx, &c); err != nil {
				return err
			}
			return database.CreateVehicleCategory(tx, &c)
		})
		if err != nil {
			httpx.ServiceError(w, err, "車両区分の登録に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, c)
	}
}

func UpdateCategoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var c model.VehicleCategory
		if !decode(w, r, &c) {
			return
		}
		c.ID = id
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			if err := validateCategory(tx, &c); err != nil {
				return err
			}
			return database.UpdateVehicleCategory(tx, &c)
		})
		if err != nil {
			httpx.ServiceError(w, err, "車両区分の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, c)
	}
}

// DeleteCategoryHandler は区分とその法定費用を削除します。車両の区分は未設定に戻ります。
func DeleteCategoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := database.DeleteVehicleCategory(db, id); err != nil {
			httpx.ServiceError(w, err, "車両区分の削除に失敗しました")
			return
		}
		log.Printf("Vehicle category %d deleted", id)
		httpx.Message(w, "車両区分を削除しました。")
	}
}

// --- statutory fees ---

// ListStatutoryFeesHandler は GET /api/vehicle-categories/{id}/fees です。
func ListStatutoryFeesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		fees, err := database.GetStatutoryFeesByCategory(db, id)
		if err != nil {
			httpx.ServiceError(w, err, "法定費用の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, fees)
	}
}

// CreateStatutoryFeeHandler は POST /api/vehicle-categories/{id}/fees です。
func CreateStatutoryFeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var f model.StatutoryFee
		if !decode(w, r, &f) {
			return
		}
		f.ID = 0
		f.VehicleCategoryID = categoryID
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			if err := validateFee(tx, &f); err != nil {
				return err
			}
			return database.CreateStatutoryFee(tx, &f)
		})
		if err != nil {
			httpx.ServiceError(w, err, "法定費用の登録に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusCreated, f)
	}
}

// UpdateStatutoryFeeHandler は PUT /api/statutory-fees/{id} です。
func UpdateStatutoryFeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var f model.StatutoryFee
		if !decode(w, r, &f) {
			return
		}
		f.ID = id
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			if err := validateFee(tx, &f); err != nil {
				return err
			}
			return database.UpdateStatutoryFee(tx, &f)
		})
		if err != nil {
			httpx.ServiceError(w, err, "法定費用の更新に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, f)
	}
}

func DeleteStatutoryFeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := database.DeleteStatutoryFee(db, id); err != nil {
			httpx.ServiceError(w, err, "法定費用の削除に失敗しました")
			return
		}
		httpx.Message(w, "法定費用を削除しました。")
	}
}

// --- issuer info ---

func GetIssuerInfoHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := database.GetIssuerInfo(db)
		if err != nil {
			httpx.ServiceError(w, err, "発行者情報の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, info)
	}
}

func SaveIssuerInfoHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var info model.IssuerInfo
		if !decode(w, r, &info) {
			return
		}
		if err := validateIssuer(&info); err != nil {
			httpx.ServiceError(w, err, "発行者情報の保存に失敗しました")
			return
		}
		if err := database.SaveIssuerInfo(db, &info); err != nil {
			httpx.ServiceError(w, err, "発行者情報の保存に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, info)
	}
}

// --- email settings ---

func GetEmailSettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := database.GetEmailSettings(db)
		if errors.Is(err, database.ErrNotFound) {
			httpx.JSON(w, http.StatusOK, model.EmailSettings{SMTPPort: 587, UseTLS: true})
			return
		}
		if err != nil {
			httpx.ServiceError(w, err, "メール設定の取得に失敗しました")
			return
		}
		if s.Password != "" {
			s.Password = maskedPassword
		}
		httpx.JSON(w, http.StatusOK, s)
	}
}

// SaveEmailSettingsHandler はメール設定を保存します。パスワードが空か伏せ字のままなら
// 保存済みのパスワードを使い続けます。
func SaveEmailSettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s model.EmailSettings
		if !decode(w, r, &s) {
			return
		}
		if err := validateEmailSettings(&s); err != nil {
			httpx.ServiceError(w, err, "メール設定の保存に失敗しました")
			return
		}
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			if s.Password == "" || s.Password == maskedPassword {
				s.Password = ""
				if current, err := database.GetEmailSettings(tx); err == nil {
					s.Password = current.Password
				} else if !errors.Is(err, database.ErrNotFound) {
					return err
				}
			}
			return database.SaveEmailSettings(tx, &s)
		})
		if err != nil {
			httpx.ServiceError(w, err, "メール設定の保存に失敗しました")
			return
		}
		if s.Password != "" {
			s.Password = maskedPassword
		}
		httpx.JSON(w, http.StatusOK, s)
	}
}
