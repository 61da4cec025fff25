package parsers

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func readAll(t *testing.T, r *VehicleCSVReader) []VehicleRow {
	t.Helper()
	var rows []VehicleRow
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestResolveColumnsLastWins(t *testing.T) {
	header := []string{"fld_氏名", "fld_住所", "fld_電話番号", "unknown", "fld_住所1", "fld_携帯番号"}
	cols := ResolveColumns(header, DefaultHeaderMap)
	assert.Equal(t, 0, cols[FieldName])
	assert.Equal(t, 4, cols[FieldAddress])
	assert.Equal(t, 5, cols[FieldPhone])
	assert.Len(t, cols, 3)
}

func TestVehicleCSVReaderRows(t *testing.T) {
	csvText := "fld_氏名,fld_車名,fld_走行距離\n" +
		"山田太郎,トヨタ,\"12,345\"\n" +
		"山田太郎,ホンダ\n" +
		",日産,100\n" +
		"\"佐藤 \"\"花子\"\"\",マツダ,5\n"

	r, err := NewVehicleCSVReader(strings.NewReader(csvText), nil)
	require.NoError(t, err)
	rows := readAll(t, r)
	require.Len(t, rows, 4)

	assert.Equal(t, RowOK, rows[0].Status)
	assert.Equal(t, 1, rows[0].Row)
	assert.Equal(t, "山田太郎", rows[0].Get(FieldName))
	assert.Equal(t, "12,345", rows[0].Get(FieldMileage))
	assert.Equal(t, "トヨタ", rows[0].Raw["fld_車名"])

	assert.Equal(t, RowSkipped, rows[1].Status)
	assert.NotEmpty(t, rows[1].Reason)

	assert.Equal(t, RowSkipped, rows[2].Status)
	assert.Empty(t, rows[2].Reason)

	assert.Equal(t, RowOK, rows[3].Status)
	assert.Equal(t, `佐藤 "花子"`, rows[3].Get(FieldName))
	assert.Equal(t, 4, rows[3].Row)
}

func TestVehicleCSVReaderMalformedQuote(t *testing.T) {
	csvText := "fld_氏名,fld_車名\n" +
		"山田\"太郎,トヨタ\n" +
		"鈴木一郎,スズキ\n"
	r, err := NewVehicleCSVReader(strings.NewReader(csvText), nil)
	require.NoError(t, err)
	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, RowError, rows[0].Status)
	assert.Error(t, rows[0].Err)
	assert.Equal(t, RowOK, rows[1].Status)
	assert.Equal(t, "鈴木一郎", rows[1].Get(FieldName))
}

func TestVehicleCSVReaderRequiresName(t *testing.T) {
	_, err := NewVehicleCSVReader(strings.NewReader("fld_車名\nトヨタ\n"), nil)
	assert.Error(t, err)

	_, err = NewVehicleCSVReader(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestNewDecodingReaderShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().String("fld_氏名,fld_車名\n山田太郎,ﾄﾖﾀ\n")
	require.NoError(t, err)

	decoded, err := NewDecodingReader(bytes.NewReader([]byte(encoded)), "")
	require.NoError(t, err)
	r, err := NewVehicleCSVReader(decoded, nil)
	require.NoError(t, err)
	rows := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "山田太郎", rows[0].Get(FieldName))
	assert.Equal(t, "ﾄﾖﾀ", rows[0].Get(FieldCarName))
}

func TestNewDecodingReaderUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("fld_氏名\n山田\n")...)
	decoded, err := NewDecodingReader(bytes.NewReader(raw), "utf-8")
	require.NoError(t, err)
	r, err := NewVehicleCSVReader(decoded, nil)
	require.NoError(t, err)
	assert.Equal(t, "fld_氏名", r.Header()[0])
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"shift_jis", "Shift_JIS", "cp932", "windows-31j", "euc-jp", "iso-2022-jp", "utf-8", ""} {
		_, err := LookupEncoding(name)
		assert.NoError(t, err, name)
	}
	_, err := LookupEncoding("klingon")
	assert.Error(t, err)
}
