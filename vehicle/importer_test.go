package vehicle

import (
	"context"
	"seibi/database"
	"seibi/model"
	"seibi/testdb"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

const importHeader = "fld_氏名,fld_郵便番号,fld_住所,fld_登録番号,fld_車名,fld_走行距離,fld_初度登録年月,fld_車検満了日\n"

func newTestImporter(t *testing.T) (*Importer, *sqlx.DB) {
	db := testdb.Open(t)
	im := NewImporter(db)
	im.Now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.Local) }
	return im, db
}

func sjis(t *testing.T, s string) []byte {
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestImportSameNameSharesClient(t *testing.T) {
	im, db := newTestImporter(t)
	csvText := importHeader +
		"山田太郎,100-0001,東京都千代田区千代田1-1,品川300あ1234,プリウス,\"12,345km\",平成30年4月,R7.4.1\n" +
		"山田太郎,,,品川500い5678,アクア,８０００,2019/5/1,\n"

	res, err := im.ImportFromDelimitedText(context.Background(), sjis(t, csvText), "shift_jis", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	assert.Equal(t, 2, res.VehiclesImported)
	assert.Empty(t, res.Errors)

	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "", clients[0].Email)
	assert.Equal(t, 13, clients[0].Prefecture)

	vehicles, err := database.GetVehiclesByClient(db, clients[0].ID)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)

	prius := vehicles[0]
	assert.Equal(t, "プリウス", prius.CarName)
	require.NotNil(t, prius.Mileage)
	assert.Equal(t, 12345, *prius.Mileage)
	require.NotNil(t, prius.FirstRegistration)
	assert.Equal(t, "2018-04-01", prius.FirstRegistration.Format("2006-01-02"))
	require.NotNil(t, prius.InspectionExpiry)
	assert.Equal(t, "2025-04-01", prius.InspectionExpiry.Format("2006-01-02"))
	assert.Equal(t, "品川", prius.PlateRegion)
	assert.Equal(t, "1234", prius.PlateNumber)
	assert.Equal(t, "csv", prius.ImportSource)
	assert.Contains(t, prius.ImportRaw, "プリウス")

	aqua := vehicles[1]
	require.NotNil(t, aqua.Mileage)
	assert.Equal(t, 8000, *aqua.Mileage)
	assert.Nil(t, aqua.InspectionExpiry)
}

func TestImportBackfillsBlankAddress(t *testing.T) {
	im, db := newTestImporter(t)
	csvText := importHeader +
		"鈴木花子,,,,,,,\n" +
		"鈴木花子,530-0001,大阪府大阪市北区梅田1-1,,,,,\n" +
		"鈴木花子,999-9999,北海道札幌市,,,,,\n"

	res, err := im.ImportFromDelimitedText(context.Background(), []byte(csvText), "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	assert.Equal(t, 3, res.VehiclesImported)

	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "530-0001", clients[0].Zip)
	assert.Equal(t, "大阪府大阪市北区梅田1-1", clients[0].Address)
	assert.Equal(t, 27, clients[0].Prefecture)
}

func TestImportSkipsShortAndBlankRows(t *testing.T) {
	im, _ := newTestImporter(t)
	csvText := importHeader +
		"山田太郎,100-0001\n" +
		",,,,,,,\n" +
		"佐藤一郎,,,,フィット,,,\n"

	res, err := im.ImportFromDelimitedText(context.Background(), []byte(csvText), "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	assert.Equal(t, 1, res.VehiclesImported)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.Errors)
}

func TestImportReportsMalformedRows(t *testing.T) {
	im, _ := newTestImporter(t)
	csvText := importHeader +
		"山田太郎,,,,プリウス,,,\n" +
		"佐藤\"一郎,,,,フィット,,,\n" +
		"田中次郎,,,,ノート,,,\n"

	res, err := im.ImportFromDelimitedText(context.Background(), []byte(csvText), "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "row 2: "), res.Errors[0])
	assert.Equal(t, 2, res.VehiclesImported)
}

func TestImportReplaceExisting(t *testing.T) {
	im, db := newTestImporter(t)
	old := &model.Client{Name: "旧顧客"}
	require.NoError(t, database.CreateClient(db, old))
	require.NoError(t, database.CreateVehicle(db, &model.Vehicle{ClientID: old.ID}))
	require.NoError(t, database.CreateInvoice(db, &model.Invoice{
		InvoiceNumber: "2503000101", ClientID: old.ID, InvoiceDate: time.Now(), WorkCompletedDate: time.Now(),
	}))

	csvText := importHeader + "新顧客,,,,,,,\n"

	res, err := im.ImportFromDelimitedText(context.Background(), []byte(csvText), "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	assert.Empty(t, res.Warnings)
	n, err := database.CountClients(db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err = im.ImportFromDelimitedText(context.Background(), []byte(csvText), "utf-8", nil, ImportOptions{ReplaceExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "請求書 1 件")
	invoices, err := database.CountInvoices(db)
	require.NoError(t, err)
	assert.Equal(t, 0, invoices)

	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "新顧客", clients[0].Name)
	assert.Equal(t, int64(1), clients[0].ID, "sequence restarts after replace")
	vehicles, err := database.CountVehicles(db)
	require.NoError(t, err)
	assert.Equal(t, 1, vehicles)
}

func TestImportBatches(t *testing.T) {
	im, db := newTestImporter(t)
	im.BatchSize = 3
	var sb strings.Builder
	sb.WriteString(importHeader)
	for i := 0; i < 10; i++ {
		sb.WriteString("山田太郎,,,,プリウス,,,\n")
	}

	res, err := im.ImportFromDelimitedText(context.Background(), []byte(sb.String()), "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 10, res.VehiclesImported)
	n, err := database.CountVehicles(db)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestImportCancelled(t *testing.T) {
	im, db := newTestImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := im.ImportFromDelimitedText(ctx, []byte(importHeader+"山田太郎,,,,,,,\n"), "utf-8", nil, ImportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.VehiclesImported)
	n, err := database.CountVehicles(db)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImportRejectsBadInput(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.ImportFromDelimitedText(context.Background(), []byte("fld_車名\nプリウス\n"), "utf-8", nil, ImportOptions{})
	assert.Error(t, err)

	_, err = im.ImportFromDelimitedText(context.Background(), []byte(importHeader), "no-such-encoding", nil, ImportOptions{})
	assert.Error(t, err)

	_, err = im.ImportFromDelimitedText(context.Background(), nil, "utf-8", nil, ImportOptions{})
	assert.Error(t, err)
}

func TestImportUTF8WithBOM(t *testing.T) {
	im, db := newTestImporter(t)
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(importHeader+"山田太郎,,,,,,,\n")...)

	res, err := im.ImportFromDelimitedText(context.Background(), raw, "utf-8", nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClientsImported)
	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	assert.Equal(t, "山田太郎", clients[0].Name)
}
