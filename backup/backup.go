// Package backup は全テーブルを1つのJSONに書き出し、そこから丸ごと復元します。
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"seibi/database"
	"seibi/model"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const (
	FormatVersion = "1.0"
	DatabaseName  = "seibi"
)

type Tables struct {
	Clients             []model.Client             `json:"clients"`
	VehicleCategories   []model.VehicleCategory    `json:"vehicleCategories"`
	StatutoryFees       []model.StatutoryFee       `json:"statutoryFees"`
	Parts               []model.Part               `json:"parts"`
	Vehicles            []model.Vehicle            `json:"vehicles"`
	Invoices            []model.Invoice            `json:"invoices"`
	InvoiceDetails      []model.InvoiceDetail      `json:"invoiceDetails"`
	IssuerInfo          []model.IssuerInfo         `json:"issuerInfo"`
	Users               []model.User               `json:"users"`
	EmailSettings       []model.EmailSettings      `json:"emailSettings"`
	PasswordResetTokens []model.PasswordResetToken `json:"passwordResetTokens"`
}

// Envelope はバックアップファイルの形式です。
type Envelope struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Tables    Tables    `json:"tables"`
}

// Counts はテーブルごとの件数です (ログと画面表示用)。
func (t *Tables) Counts() map[string]int {
	return map[string]int{
		"clients":             len(t.Clients),
		"vehicleCategories":   len(t.VehicleCategories),
		"statutoryFees":       len(t.StatutoryFees),
		"parts":               len(t.Parts),
		"vehicles":            len(t.Vehicles),
		"invoices":            len(t.Invoices),
		"invoiceDetails":      len(t.InvoiceDetails),
		"issuerInfo":          len(t.IssuerInfo),
		"users":               len(t.Users),
		"emailSettings":       len(t.EmailSettings),
		"passwordResetTokens": len(t.PasswordResetTokens),
	}
}

// Export は全テーブルを1つの読み取りトランザクションで取り出します。
func Export(db *sqlx.DB, now time.Time) (*Envelope, error) {
	env := &Envelope{Version: FormatVersion, Timestamp: now, Database: DatabaseName}
	t := &env.Tables
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		if t.Clients, err = database.GetAllClients(tx); err != nil {
			return err
		}
		if t.VehicleCategories, err = database.GetVehicleCategories(tx); err != nil {
			return err
		}
		if t.StatutoryFees, err = database.GetAllStatutoryFees(tx); err != nil {
			return err
		}
		if t.Parts, err = database.GetAllParts(tx); err != nil {
			return err
		}
		if t.Vehicles, err = database.GetAllVehicles(tx); err != nil {
			return err
		}
		if t.Invoices, err = database.GetAllInvoices(tx); err != nil {
			return err
		}
		if t.InvoiceDetails, err = database.GetAllInvoiceDetails(tx); err != nil {
			return err
		}
		if t.IssuerInfo, err = database.GetAllIssuerInfo(tx); err != nil {
			return err
		}
		if t.Users, err = database.GetAllUsers(tx); err != nil {
			return err
		}
		if t.EmailSettings, err = database.GetAllEmailSettings(tx); err != nil {
			return err
		}
		t.PasswordResetTokens, err = database.GetAllResetTokens(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("バックアップの作成に失敗: %w", err)
	}
	log.WithFields(log.Fields{"counts": t.Counts()}).Info("Backup exported")
	return env, nil
}

// Decode は JSON を読み込み、版の違うファイルを拒否します。
func Decode(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("バックアップファイルの形式が不正です: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("対応していないバックアップの版です: %q", env.Version)
	}
	return &env, nil
}

// Restore は既存の行を全て消してから env の内容を id ごと投入します。
// 全体が1つのトランザクションなので、途中で失敗すると元のデータが残ります。
// 自動採番は復元後の最大 id の次から続きます。
func Restore(db *sqlx.DB, env *Envelope) error {
	t := &env.Tables
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		if err := database.DeleteAllRows(tx); err != nil {
			return err
		}
		if err := database.ResetSequences(tx, database.RestoreTables...); err != nil {
			return err
		}

		steps := []func() error{
			func() error { return database.RestoreClients(tx, t.Clients) },
			func() error { return database.RestoreVehicleCategories(tx, t.VehicleCategories) },
			func() error { return database.RestoreStatutoryFees(tx, t.StatutoryFees) },
			func() error { return database.RestoreParts(tx, t.Parts) },
			func() error { return database.RestoreVehicles(tx, t.Vehicles) },
			func() error { return database.RestoreInvoices(tx, t.Invoices) },
			func() error { return database.RestoreInvoiceDetails(tx, t.InvoiceDetails) },
			func() error { return database.RestoreIssuerInfo(tx, t.IssuerInfo) },
			func() error { return database.RestoreUsers(tx, t.Users) },
			func() error { return database.RestoreEmailSettings(tx, t.EmailSettings) },
			func() error { return database.RestoreResetTokens(tx, t.PasswordResetTokens) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}

		for _, table := range database.RestoreTables {
			maxID, err := database.MaxID(tx, table)
			if err != nil {
				return err
			}
			if err := database.SetSequence(tx, table, maxID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("復元に失敗したため元のデータを保持しました: %w", err)
	}
	log.WithFields(log.Fields{"counts": t.Counts(), "from": env.Timestamp}).Info("Backup restored")
	return nil
}
