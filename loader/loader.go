package loader

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"seibi/database"
	"seibi/model"
	"seibi/parsers"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// 初期投入する車両区分 (表示順)
var defaultVehicleCategories = []string{
	"軽自動車",
	"小型乗用車",
	"中型乗用車",
	"大型乗用車",
	"小型貨物車",
	"普通貨物車",
}

// InitDatabase はスキーマを適用し、マスターの初期データを投入します。
// 何度呼んでも結果は同じです。
func InitDatabase(db *sqlx.DB) error {
	log.Println("Applying database schema...")
	if err := applySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}
	log.Println("Schema applied successfully.")

	if err := seedVehicleCategories(db); err != nil {
		return fmt.Errorf("failed to seed vehicle categories: %w", err)
	}

	// 部品マスタCSV (任意)
	partsPath := "SOU/PARTS.CSV"
	if _, err := os.Stat(partsPath); os.IsNotExist(err) {
		log.Warnf("%s not found, skipping.", partsPath)
	} else {
		log.Printf("Loading %s...", partsPath)
		f, err := os.Open(partsPath)
		if err != nil {
			return fmt.Errorf("could not open file %s: %w", partsPath, err)
		}
		defer f.Close()
		n, err := LoadPartsCSV(db, f, "shift_jis")
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", partsPath, err)
		}
		log.Printf("Loaded %d parts from %s.", n, partsPath)
	}
	return nil
}

func applySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// seedVehicleCategories は区分が1件も無いときだけ初期区分を入れます。
func seedVehicleCategories(db *sqlx.DB) error {
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.Get(&n, "SELECT COUNT(*) FROM vehicle_categories"); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for i, name := range defaultVehicleCategories {
			_, err := tx.Exec(
				"INSERT OR IGNORE INTO vehicle_categories (name, display_order) VALUES (?, ?)", name, i+1)
			if err != nil {
				return fmt.Errorf("insert category %s: %w", name, err)
			}
		}
		return nil
	})
}

// LoadPartsCSV は部品マスタCSV (品番,品名,単価,備考) を読み込み、
// 品番が一致する部品は更新、それ以外は追加します。
// 先頭行が「品番」で始まる場合はヘッダーとして読み飛ばします。
func LoadPartsCSV(db *sqlx.DB, src io.Reader, encoding string) (count int, err error) {
	decoded, err := parsers.NewDecodingReader(src, encoding)
	if err != nil {
		return 0, err
	}
	r := csv.NewReader(decoded)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("Rolling back parts load due to error: %v", err)
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	first := true
	for {
		row, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			log.Warnf("Error reading parts row (skipping): %v", readErr)
			continue
		}
		if first {
			first = false
			if len(row) > 0 && strings.Contains(parsers.TrimBOM(row[0]), "品番") {
				continue
			}
		}
		if len(row) < 3 {
			continue
		}

		p := model.Part{
			PartNumber: strings.TrimSpace(row[0]),
			Name:       strings.TrimSpace(row[1]),
		}
		if p.Name == "" {
			continue
		}
		price, perr := decimal.NewFromString(parsers.LeadingNumber(row[2]))
		if perr != nil {
			price = decimal.Zero
		}
		p.UnitPrice = price
		if len(row) > 3 {
			p.Notes = strings.TrimSpace(row[3])
		}

		// 品番なしは常に新規
		var existing *model.Part
		lookupErr := database.ErrNotFound
		if p.PartNumber != "" {
			existing, lookupErr = database.GetPartByNumber(tx, p.PartNumber)
		}
		switch {
		case lookupErr == nil:
			p.ID = existing.ID
			if err = database.UpdatePart(tx, &p); err != nil {
				return count, fmt.Errorf("failed to update part %s: %w", p.PartNumber, err)
			}
		case errors.Is(lookupErr, database.ErrNotFound):
			if err = database.CreatePart(tx, &p); err != nil {
				return count, fmt.Errorf("failed to insert part %s: %w", p.Name, err)
			}
		default:
			err = lookupErr
			return count, err
		}
		count++
	}
	log.Printf("Inserted or updated %d parts", count)
	return count, nil
}
