// Package invoice は請求書の採番・合計計算と、明細の変更に伴う合計の再計算を扱います。
package invoice

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	prefixLen = 8
	numberLen = 10
	maxSeq    = 99
	maxClient = 9999
)

var (
	// ErrSequenceExhausted は同じ顧客・同じ月で99件を超えたときに返ります。
	ErrSequenceExhausted = errors.New("invoice sequence exhausted for this client and month")
	ErrInvalidClientID   = errors.New("client id must be between 1 and 9999")
)

// NumberLookup は prefix で始まる既存の請求書番号をすべて返します。
type NumberLookup func(prefix string) ([]string, error)

// NumberPrefix は YY + MM + 顧客ID(4桁) の8文字です。
func NumberPrefix(clientID int64, now time.Time) string {
	return fmt.Sprintf("%02d%02d%04d", now.Year()%100, int(now.Month()), clientID)
}

// GenerateInvoiceNumber は次の請求書番号 (prefix + 連番2桁) を返します。
// 連番は prefix が一致する既存番号のうち辞書順で最大のものの末尾2桁 + 1、無ければ 01 です。
// 100件目は番号の桁を崩さず ErrSequenceExhausted を返します。
func GenerateInvoiceNumber(clientID int64, now time.Time, lookup NumberLookup) (string, error) {
	if clientID < 1 || clientID > maxClient {
		return "", ErrInvalidClientID
	}
	prefix := NumberPrefix(clientID, now)

	existing, err := lookup(prefix)
	if err != nil {
		return "", fmt.Errorf("請求書番号の採番に失敗: %w", err)
	}

	var last string
	for _, n := range existing {
		if len(n) != numberLen || n[:prefixLen] != prefix {
			continue
		}
		if n > last {
			last = n
		}
	}

	seq := 1
	if last != "" {
		lastSeq, err := strconv.Atoi(last[prefixLen:])
		if err != nil {
			return "", fmt.Errorf("既存の請求書番号 %s の連番を解釈できません: %w", last, err)
		}
		seq = lastSeq + 1
	}
	if seq > maxSeq {
		return "", fmt.Errorf("%w (prefix %s)", ErrSequenceExhausted, prefix)
	}
	return fmt.Sprintf("%s%02d", prefix, seq), nil
}
