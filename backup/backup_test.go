package backup

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"seibi/database"
	"seibi/model"
	"seibi/testdb"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, name := range []string{"山田太郎", "鈴木花子", "佐藤一郎"} {
		require.NoError(t, database.CreateClient(db, &model.Client{Name: name}))
	}
	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v := &model.Vehicle{ClientID: clients[i%3].ID, CarName: "車" + string(rune('A'+i))}
		require.NoError(t, database.CreateVehicle(db, v))
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)

	env, err := Export(db, time.Now())
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, env.Version)
	assert.Len(t, env.Tables.Clients, 3)
	assert.Len(t, env.Tables.Vehicles, 5)
	assert.NotEmpty(t, env.Tables.VehicleCategories)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	// restore into a database that already holds unrelated data
	other := testdb.Open(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, database.CreateClient(other, &model.Client{Name: "旧データ"}))
	}

	decoded, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, Restore(other, decoded))

	clients, err := database.GetAllClients(other)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "山田太郎", clients[0].Name)
	vehicles, err := database.GetAllVehicles(other)
	require.NoError(t, err)
	require.Len(t, vehicles, 5)
	assert.Equal(t, clients[1].ID, vehicles[1].ClientID)

	maxID, err := database.MaxID(other, "clients")
	require.NoError(t, err)
	next := &model.Client{Name: "新規"}
	require.NoError(t, database.CreateClient(other, next))
	assert.Equal(t, maxID+1, next.ID)
}

func TestRestoreKeepsIDsAndContinuesSequence(t *testing.T) {
	db := testdb.Open(t)
	now := time.Now()
	env := &Envelope{Version: FormatVersion, Timestamp: now, Database: DatabaseName}
	env.Tables.Clients = []model.Client{
		{ID: 10, Name: "A", CreatedAt: now, UpdatedAt: now},
		{ID: 20, Name: "B", CreatedAt: now, UpdatedAt: now},
		{ID: 35, Name: "C", CreatedAt: now, UpdatedAt: now},
	}
	for i, cid := range []int64{10, 10, 20, 35, 35} {
		env.Tables.Vehicles = append(env.Tables.Vehicles, model.Vehicle{
			ID: int64(100 + i), ClientID: cid, CreatedAt: now, UpdatedAt: now,
		})
	}
	env.Tables.Parts = []model.Part{{ID: 4, Name: "オイル", UnitPrice: decimal.RequireFromString("1200")}}

	require.NoError(t, Restore(db, env))

	n, err := database.CountClients(db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = database.CountVehicles(db)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	cats, err := database.GetVehicleCategories(db)
	require.NoError(t, err)
	assert.Empty(t, cats, "categories are replaced by the backup contents")

	c := &model.Client{Name: "D"}
	require.NoError(t, database.CreateClient(db, c))
	assert.Equal(t, int64(36), c.ID)
	v := &model.Vehicle{ClientID: c.ID}
	require.NoError(t, database.CreateVehicle(db, v))
	assert.Equal(t, int64(105), v.ID)
	p := &model.Part{Name: "フィルター"}
	require.NoError(t, database.CreatePart(db, p))
	assert.Equal(t, int64(5), p.ID)
}

func TestRestoreRollsBackOnFailure(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)

	now := time.Now()
	env := &Envelope{Version: FormatVersion, Timestamp: now, Database: DatabaseName}
	env.Tables.Clients = []model.Client{{ID: 1, Name: "A", CreatedAt: now, UpdatedAt: now}}
	// vehicle pointing at a client that is not in the backup
	env.Tables.Vehicles = []model.Vehicle{{ID: 1, ClientID: 99, CreatedAt: now, UpdatedAt: now}}

	err := Restore(db, env)
	require.Error(t, err)

	n, err := database.CountClients(db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = database.CountVehicles(db)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestDecodeRejectsOtherVersions(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":"2.0","tables":{}}`))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestHandlers(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)

	rec := httptest.NewRecorder()
	ExportHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/backup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "seibi_backup_")
	backupJSON := rec.Body.Bytes()

	require.NoError(t, database.CreateClient(db, &model.Client{Name: "追加"}))

	rec = httptest.NewRecorder()
	RestoreHandler(db)(rec, httptest.NewRequest(http.MethodPost, "/api/restore", bytes.NewReader(backupJSON)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Counts["clients"])

	n, err := database.CountClients(db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec = httptest.NewRecorder()
	RestoreHandler(db)(rec, httptest.NewRequest(http.MethodPost, "/api/restore", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
