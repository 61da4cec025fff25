package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ResetSequences clears the AUTOINCREMENT counters of the given tables so the
// next insert starts above whatever ids remain (1 for an empty table).
func ResetSequences(dbtx DBTX, tables ...string) error {
	for _, t := range tables {
		if _, err := dbtx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t); err != nil {
			return fmt.Errorf("failed to reset sequence '%s': %w", t, err)
		}
		log.Infof("[Sequence] Reset '%s'", t)
	}
	return nil
}

// SetSequence moves a table's AUTOINCREMENT counter to at least maxID.
func SetSequence(dbtx DBTX, table string, maxID int64) error {
	if maxID <= 0 {
		return nil
	}
	res, err := dbtx.Exec("UPDATE sqlite_sequence SET seq = ? WHERE name = ? AND seq < ?", maxID, table, maxID)
	if err != nil {
		return fmt.Errorf("failed to set sequence '%s': %w", table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	if err := dbtx.Get(&exists, "SELECT COUNT(*) FROM sqlite_sequence WHERE name = ?", table); err != nil {
		return fmt.Errorf("failed to read sequence '%s': %w", table, err)
	}
	if exists == 0 {
		if _, err := dbtx.Exec("INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", table, maxID); err != nil {
			return fmt.Errorf("failed to insert sequence '%s': %w", table, err)
		}
	}
	return nil
}

// MaxID returns the largest id in table, 0 when empty.
func MaxID(dbtx DBTX, table string) (int64, error) {
	var id int64
	err := dbtx.Get(&id, "SELECT COALESCE(MAX(id), 0) FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("MaxID (%s) failed: %w", table, err)
	}
	return id, nil
}
