// Package testdb はテスト用に、スキーマ適用済みの一時 sqlite ファイルを開きます。
package testdb

import (
	"path/filepath"
	"seibi/database"
	"seibi/loader"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// Open はテストごとに別の DB ファイルを作り、終了時に閉じます。
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "seibi_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, loader.InitDatabase(db))
	return db
}
