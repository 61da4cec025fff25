// Package vehicle は車両の登録・更新と、CSV・車検証データからの取り込みを扱います。
package vehicle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"seibi/config"
	"seibi/database"
	"seibi/mappers"
	"seibi/model"
	"seibi/parsers"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type ImportOptions struct {
	// ReplaceExisting が true のとき、取り込み前に全ての車両と顧客を削除します。
	// 顧客の請求書も削除され、その件数は Warnings に入ります。
	ReplaceExisting bool
}

type ImportResult struct {
	ClientsImported  int      `json:"clientsImported"`
	VehiclesImported int      `json:"vehiclesImported"`
	Skipped          int      `json:"skipped"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
}

// Importer は顧客管理ソフトの書き出しCSVから顧客と車両を取り込みます。
type Importer struct {
	db        *sqlx.DB
	BatchSize int
	Now       func() time.Time
}

func NewImporter(db *sqlx.DB) *Importer {
	return &Importer{
		db:        db,
		BatchSize: config.GetConfig().ImportBatchSize,
		Now:       time.Now,
	}
}

type pendingVehicle struct {
	row     int
	vehicle *model.Vehicle
}

// ImportFromDelimitedText は raw を encoding で UTF-8 に変換して1行ずつ取り込みます。
//
// 顧客は氏名の完全一致で照合し、初出の行で作成してすぐ保存します。2回目以降は
// 空欄の郵便番号・住所・都道府県だけを補います。車両は1行につき1台で、
// BatchSize 件ごとにトランザクションでまとめて保存します。
// ctx が取り消された場合は、それまでに保存した件数と ctx.Err() を返します。
func (im *Importer) ImportFromDelimitedText(ctx context.Context, raw []byte, encoding string, headerMap parsers.HeaderMap, opts ImportOptions) (result ImportResult, err error) {
	result = ImportResult{Errors: []string{}, Warnings: []string{}}
	if encoding == "" {
		encoding = parsers.DefaultEncoding
	}
	batchSize := im.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	decoded, err := parsers.NewDecodingReader(bytes.NewReader(raw), encoding)
	if err != nil {
		return result, err
	}
	reader, err := parsers.NewVehicleCSVReader(decoded, headerMap)
	if err != nil {
		return result, err
	}

	if opts.ReplaceExisting {
		log.Println("Replacing existing vehicles and clients before import...")
		var invoices int
		if err := database.WithTx(im.db, func(tx *sqlx.Tx) error {
			n, err := database.CountInvoices(tx)
			if err != nil {
				return err
			}
			invoices = n
			return database.DeleteAllVehiclesAndClients(tx)
		}); err != nil {
			return result, fmt.Errorf("既存データの削除に失敗: %w", err)
		}
		// 請求書は顧客の削除に連動して消える
		if invoices > 0 {
			log.Warnf("%d invoices deleted together with their clients", invoices)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("既存の請求書 %d 件も顧客と一緒に削除しました。", invoices))
		}
		defer func() {
			if len(result.Errors) > 0 {
				result.Warnings = append(result.Warnings,
					"既存の顧客・車両は削除済みです。エラーの行は取り込まれていません。")
			}
		}()
	}

	existing, err := database.GetClientMapByName(im.db)
	if err != nil {
		return result, err
	}
	clientIDs := make(map[string]int64, len(existing))
	for name, c := range existing {
		clientIDs[name] = c.ID
	}

	now := im.Now()
	var pending []pendingVehicle
	flush := func() {
		if len(pending) == 0 {
			return
		}
		vehicles := make([]*model.Vehicle, len(pending))
		for i, p := range pending {
			vehicles[i] = p.vehicle
		}
		err := database.WithTx(im.db, func(tx *sqlx.Tx) error {
			return database.CreateVehicles(tx, vehicles)
		})
		if err != nil {
			msg := fmt.Sprintf("rows %d-%d: %v", pending[0].row, pending[len(pending)-1].row, err)
			log.Errorf("vehicle batch failed: %s", msg)
			result.Errors = append(result.Errors, msg)
		} else {
			result.VehiclesImported += len(pending)
		}
		pending = pending[:0]
	}

	for {
		if err := ctx.Err(); err != nil {
			log.Warnf("vehicle import cancelled: %d clients, %d vehicles committed",
				result.ClientsImported, result.VehiclesImported)
			return result, err
		}

		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			flush()
			return result, fmt.Errorf("CSVの読み取りに失敗: %w", err)
		}

		switch row.Status {
		case parsers.RowError:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row.Row, row.Err))
			continue
		case parsers.RowSkipped:
			if row.Reason != "" {
				log.Warnf("Skipping row %d: %s", row.Row, row.Reason)
			}
			result.Skipped++
			continue
		}

		name := row.Get(parsers.FieldName)
		clientID, known := clientIDs[name]
		c := mappers.ClientFromRow(&row)
		if !known {
			if err := database.CreateClient(im.db, &c); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row.Row, err))
				continue
			}
			clientID = c.ID
			clientIDs[name] = clientID
			result.ClientsImported++
		} else if c.Zip != "" || c.Address != "" || c.Prefecture != 0 {
			if err := database.BackfillClientAddress(im.db, clientID, c.Zip, c.Address, c.Prefecture); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row.Row, err))
			}
		}

		pending = append(pending, pendingVehicle{row: row.Row, vehicle: mappers.VehicleFromRow(&row, clientID, now)})
		if len(pending) >= batchSize {
			flush()
		}
	}
	flush()

	log.WithFields(log.Fields{
		"clients":  result.ClientsImported,
		"vehicles": result.VehiclesImported,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
	}).Info("Vehicle CSV import finished")
	return result, nil
}
