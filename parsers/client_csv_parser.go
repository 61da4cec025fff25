package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParsedClientCSVRecord は顧客CSVの1行を表します。
type ParsedClientCSVRecord struct {
	Name     string
	Kana     string
	Email    string
	Zip      string
	Address  string
	Building string
	Phone    string
}

// ParseClientCSV は顧客マスタCSV (UTF-8 変換済み) を解析します。
// 見出しは 氏名 が必須で、フリガナ・メール・郵便番号・住所・建物名・電話番号 は任意です。
func ParseClientCSV(r io.Reader) ([]ParsedClientCSVRecord, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSVファイルが空です")
	}
	if err != nil {
		return nil, fmt.Errorf("CSVヘッダーの読み取りに失敗: %w", err)
	}

	colIndex, err := getColIndex(header, []string{"氏名"})
	if err != nil {
		return nil, err
	}

	var records []ParsedClientCSVRecord
	line := 1

	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("顧客CSV %d行目の読み取りエラー (スキップ): %v", line, err)
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		name := get("氏名")
		if name == "" {
			log.Warnf("顧客CSV %d行目 (氏名が空) (スキップ)", line)
			continue
		}

		records = append(records, ParsedClientCSVRecord{
			Name:     name,
			Kana:     get("フリガナ"),
			Email:    get("メール"),
			Zip:      get("郵便番号"),
			Address:  get("住所"),
			Building: get("建物名"),
			Phone:    get("電話番号"),
		})
	}

	return records, nil
}
