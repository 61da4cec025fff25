// Package client は顧客の登録・検索と顧客CSVの取り込みを扱います。
package client

import (
	"errors"
	"fmt"
	"io"
	"seibi/database"
	"seibi/kana"
	"seibi/mappers"
	"seibi/model"
	"seibi/parsers"
	"seibi/prefecture"
	"seibi/validation"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidFile は CSV の文字コードや見出しが読めないときのエラーです。
var ErrInvalidFile = errors.New("invalid client csv")

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// normalize は手入力の揺れを揃え、都道府県が未設定なら住所から補います。
func normalize(c *model.Client) {
	c.Name = strings.TrimSpace(c.Name)
	c.Kana = kana.NormalizeWidth(strings.TrimSpace(c.Kana))
	c.Email = strings.TrimSpace(c.Email)
	c.Zip = kana.NormalizeWidth(strings.TrimSpace(c.Zip))
	c.Address = kana.NormalizeWidth(strings.TrimSpace(c.Address))
	c.Building = kana.NormalizeWidth(strings.TrimSpace(c.Building))
	c.Phone = kana.NormalizeWidth(strings.TrimSpace(c.Phone))
	if c.Prefecture == prefecture.Unknown {
		c.Prefecture = prefecture.InferFromAddress(c.Address)
	}
}

func validate(c *model.Client) error {
	viol := validation.Violations{}
	validation.Required("name", c.Name, viol)
	validation.MaxLength("name", c.Name, 100, viol)
	validation.MaxLength("kana", c.Kana, 100, viol)
	validation.Email("email", c.Email, viol)
	validation.MaxLength("email", c.Email, 254, viol)
	validation.MaxLength("zip", c.Zip, 10, viol)
	validation.MaxLength("address", c.Address, 200, viol)
	validation.MaxLength("building", c.Building, 100, viol)
	validation.MaxLength("phone", c.Phone, 20, viol)
	if !prefecture.Valid(c.Prefecture) {
		viol["prefecture"] = "out_of_range"
	}
	return viol.Err()
}

func (s *Service) Create(c *model.Client) error {
	normalize(c)
	if err := validate(c); err != nil {
		return err
	}
	return database.CreateClient(s.db, c)
}

// Update は作成日時を保ったまま全項目を置き換えます。
func (s *Service) Update(c *model.Client) error {
	current, err := database.GetClient(s.db, c.ID)
	if err != nil {
		return err
	}
	normalize(c)
	if err := validate(c); err != nil {
		return err
	}
	c.CreatedAt = current.CreatedAt
	return database.UpdateClient(s.db, c)
}

func (s *Service) Get(id int64) (*model.Client, error) {
	return database.GetClient(s.db, id)
}

// Search は氏名・フリガナ・電話番号の部分一致です。空なら全件です。
func (s *Service) Search(query string) ([]model.Client, error) {
	return database.SearchClients(s.db, kana.NormalizeWidth(strings.TrimSpace(query)))
}

// Delete は顧客とその車両・請求書を削除します。
func (s *Service) Delete(id int64) error {
	if err := database.DeleteClient(s.db, id); err != nil {
		return err
	}
	log.Printf("Client %d deleted with its vehicles and invoices", id)
	return nil
}

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// ImportCSV は顧客マスタCSVを取り込みます。氏名が一致する顧客は
// CSV 側に値がある項目だけを上書きし、それ以外は新規に登録します。
func (s *Service) ImportCSV(src io.Reader, encoding string) (*ImportResult, error) {
	decoded, err := parsers.NewDecodingReader(src, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	records, err := parsers.ParseClientCSV(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if len(records) == 0 {
		return nil, validation.Violations{"file": "no_records"}.Err()
	}

	res := &ImportResult{Errors: []string{}}
	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		byName, err := database.GetClientMapByName(tx)
		if err != nil {
			return err
		}
		for i, rec := range records {
			c := mappers.ClientFromCSVRecord(rec)
			if verr := validate(&c); verr != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", c.Name, verr))
				continue
			}
			existing, found := byName[c.Name]
			if !found {
				if err := database.CreateClient(tx, &c); err != nil {
					return fmt.Errorf("record %d: %w", i+1, err)
				}
				byName[c.Name] = c
				res.Created++
				continue
			}
			merged := mergeClient(existing, c)
			if err := database.UpdateClient(tx, &merged); err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
			byName[c.Name] = merged
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Client CSV imported: %d created, %d updated, %d errors", res.Created, res.Updated, len(res.Errors))
	return res, nil
}

func mergeClient(dst, src model.Client) model.Client {
	pick := func(old, incoming string) string {
		if incoming != "" {
			return incoming
		}
		return old
	}
	dst.Kana = pick(dst.Kana, src.Kana)
	dst.Email = pick(dst.Email, src.Email)
	dst.Zip = pick(dst.Zip, src.Zip)
	dst.Address = pick(dst.Address, src.Address)
	dst.Building = pick(dst.Building, src.Building)
	dst.Phone = pick(dst.Phone, src.Phone)
	if src.Prefecture != prefecture.Unknown {
		dst.Prefecture = src.Prefecture
	}
	return dst
}
