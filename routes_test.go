package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seibi/auth"
	"seibi/config"
	"seibi/mailer"
	"seibi/testdb"
)

type nopSender struct{}

func (nopSender) Send(context.Context, mailer.Message) error { return nil }

func newTestServer(t *testing.T) (http.Handler, string, string) {
	t.Helper()
	db := testdb.Open(t)
	svc := auth.NewService(db, nopSender{})
	admin, err := svc.CreateUser("admin", "admin@example.com", "password1", true)
	require.NoError(t, err)
	staff, err := svc.CreateUser("staff", "", "password1", false)
	require.NoError(t, err)
	adminToken, err := svc.IssueToken(admin)
	require.NoError(t, err)
	staffToken, err := svc.IssueToken(staff)
	require.NoError(t, err)

	mux := http.NewServeMux()
	SetupRoutes(mux, db, svc, nopSender{})
	return svc.Middleware(mux), adminToken, staffToken
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireToken(t *testing.T) {
	h, _, staff := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, "/api/clients", "", "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/api/clients", staff, "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/api/vehicle-categories", staff, "").Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/api/backup", staff, "").Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/api/config", staff, "").Code)

	rec := call(h, http.MethodPost, "/api/auth/login", "", `{"username":"staff","password":"password1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesEndToEnd(t *testing.T) {
	h, admin, _ := newTestServer(t)

	rec := call(h, http.MethodPost, "/api/clients", admin, `{"name":"山田太郎","email":"taro@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(h, http.MethodPost, "/api/vehicles", admin, `{"clientId":1,"registrationNumber":"品川 500 あ 1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(h, http.MethodPost, "/api/invoices", admin, `{"clientId":1,"vehicleId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(h, http.MethodPost, "/api/invoices/1/details", admin, `{"itemName":"オイル交換","quantity":"1","unitPrice":"3000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(h, http.MethodGet, "/api/invoices/1/excel", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = call(h, http.MethodGet, "/api/backup", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version": "1.0"`)
}

func TestConfigHandlers(t *testing.T) {
	config.ConfigFilePath = filepath.Join(t.TempDir(), "seibi_config.json")
	t.Cleanup(func() { config.ConfigFilePath = "./seibi_config.json" })
	_, err := config.LoadConfig()
	require.NoError(t, err)
	h, admin, _ := newTestServer(t)

	rec := call(h, http.MethodGet, "/api/config", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), maskedSecret)

	rec = call(h, http.MethodPost, "/api/config", admin, `{"defaultTaxRate":120,"csvEncoding":"ebcdic","jwtExpiry":"soon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	for _, field := range []string{"defaultTaxRate", "csvEncoding", "jwtExpiry"} {
		assert.Contains(t, rec.Body.String(), field)
	}

	secret := config.GetConfig().JWTSecret
	rec = call(h, http.MethodPost, "/api/config", admin, `{"defaultTaxRate":8,"csvEncoding":"utf-8","jwtSecret":"********"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 8.0, config.GetConfig().DefaultTaxRate)
	assert.Equal(t, secret, config.GetConfig().JWTSecret)
}
