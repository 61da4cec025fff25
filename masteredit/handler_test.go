package masteredit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"seibi/database"
	"seibi/testdb"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(db *sqlx.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/parts", ListPartsHandler(db))
	mux.HandleFunc("POST /api/parts", CreatePartHandler(db))
	mux.HandleFunc("PUT /api/parts/{id}", UpdatePartHandler(db))
	mux.HandleFunc("DELETE /api/parts/{id}", DeletePartHandler(db))
	mux.HandleFunc("GET /api/vehicle-categories", ListCategoriesHandler(db))
	mux.HandleFunc("POST /api/vehicle-categories", CreateCategoryHandler(db))
	mux.HandleFunc("DELETE /api/vehicle-categories/{id}", DeleteCategoryHandler(db))
	mux.HandleFunc("GET /api/vehicle-categories/{id}/fees", ListStatutoryFeesHandler(db))
	mux.HandleFunc("POST /api/vehicle-categories/{id}/fees", CreateStatutoryFeeHandler(db))
	mux.HandleFunc("PUT /api/statutory-fees/{id}", UpdateStatutoryFeeHandler(db))
	mux.HandleFunc("GET /api/issuer", GetIssuerInfoHandler(db))
	mux.HandleFunc("PUT /api/issuer", SaveIssuerInfoHandler(db))
	mux.HandleFunc("GET /api/email-settings", GetEmailSettingsHandler(db))
	mux.HandleFunc("PUT /api/email-settings", SaveEmailSettingsHandler(db))
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestParts(t *testing.T) {
	db := testdb.Open(t)
	mux := newTestMux(db)

	rec := do(mux, http.MethodPost, "/api/parts", `{"partNumber":"ＡＢ-１","name":"オイルフィルター","unitPrice":"1200"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"partNumber":"AB-1"`)

	rec = do(mux, http.MethodPost, "/api/parts", `{"name":"","unitPrice":"-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must_not_be_negative")

	rec = do(mux, http.MethodPut, "/api/parts/1", `{"partNumber":"AB-1","name":"オイルフィルター","unitPrice":"1300"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p, err := database.GetPart(db, 1)
	require.NoError(t, err)
	assert.Equal(t, "1300", p.UnitPrice.String())

	rec = do(mux, http.MethodGet, "/api/parts?q=AB", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "オイルフィルター")

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPut, "/api/parts/9", `{"name":"x","unitPrice":"1"}`).Code)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodDelete, "/api/parts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodDelete, "/api/parts/1", "").Code)
}

func TestCategoriesAndFees(t *testing.T) {
	db := testdb.Open(t)
	mux := newTestMux(db)

	rec := do(mux, http.MethodPost, "/api/vehicle-categories", `{"name":"軽自動車"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_exists")

	rec = do(mux, http.MethodPost, "/api/vehicle-categories", `{"name":"二輪","displayOrder":9}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))

	feesPath := "/api/vehicle-categories/" + strconv.FormatInt(cat.ID, 10) + "/fees"
	rec = do(mux, http.MethodPost, feesPath, `{"name":"自賠責保険","amount":"7010"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(mux, http.MethodPost, feesPath, `{"name":"重量税","amount":"1900","isTaxable":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, http.MethodGet, feesPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fees []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fees))
	assert.Len(t, fees, 2)

	rec = do(mux, http.MethodPost, "/api/vehicle-categories/999/fees", `{"name":"x","amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "vehicleCategoryId")

	assert.Equal(t, http.StatusOK, do(mux, http.MethodDelete, "/api/vehicle-categories/"+strconv.FormatInt(cat.ID, 10), "").Code)
	all, err := database.GetAllStatutoryFees(db)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIssuerAndEmailSettings(t *testing.T) {
	db := testdb.Open(t)
	mux := newTestMux(db)

	rec := do(mux, http.MethodGet, "/api/issuer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"companyName":""`)

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPut, "/api/issuer", `{"companyName":""}`).Code)
	rec = do(mux, http.MethodPut, "/api/issuer", `{"companyName":"山田自動車","registrationNumber":"T1234567890123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(mux, http.MethodPut, "/api/issuer", `{"companyName":"山田自動車工業"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	all, err := database.GetAllIssuerInfo(db)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "山田自動車工業", all[0].CompanyName)

	rec = do(mux, http.MethodPut, "/api/email-settings",
		`{"smtpHost":"smtp.example.com","smtpPort":587,"fromAddress":"office@example.com","password":"s3cret","useTls":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "s3cret")

	// masked password keeps the stored one
	rec = do(mux, http.MethodPut, "/api/email-settings",
		`{"smtpHost":"smtp2.example.com","smtpPort":465,"fromAddress":"office@example.com","password":"********"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	s, err := database.GetEmailSettings(db)
	require.NoError(t, err)
	assert.Equal(t, "smtp2.example.com", s.SMTPHost)
	assert.Equal(t, "s3cret", s.Password)

	rec = do(mux, http.MethodGet, "/api/email-settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), maskedPassword)

	rec = do(mux, http.MethodPut, "/api/email-settings", `{"smtpHost":"","smtpPort":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
