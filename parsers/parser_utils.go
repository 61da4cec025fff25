package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding は取り込みCSVの既定の文字コードです。
const DefaultEncoding = "shift_jis"

// WHATWG のラベルに無い呼び名
var encodingAliases = map[string]encoding.Encoding{
	"cp932":    japanese.ShiftJIS,
	"ms932":    japanese.ShiftJIS,
	"sjis":     japanese.ShiftJIS,
	"shiftjis": japanese.ShiftJIS,
	"eucjp":    japanese.EUCJP,
	"jis":      japanese.ISO2022JP,
	"utf8":     unicode.UTF8,
}

// LookupEncoding は文字コード名から encoding.Encoding を返します。空文字列は既定値です。
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultEncoding
	}
	if enc, ok := encodingAliases[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("未対応の文字コードです: %s", name)
	}
	return enc, nil
}

// NewDecodingReader は r を指定の文字コードから UTF-8 に変換して読み出します。
// UTF-8 の場合は BOM を読み飛ばします。
func NewDecodingReader(r io.Reader, encodingName string) (io.Reader, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return SkipBOM(r), nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// SkipBOM はUTF-8 BOMをスキップします。
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	bom := []byte{0xEF, 0xBB, 0xBF}
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	isBOM := true
	for i, b := range bom {
		if peeked[i] != b {
			isBOM = false
			break
		}
	}
	if isBOM {
		br.Discard(3)
	}
	return br
}

// TrimBOM は文字列先頭の BOM を取り除きます (ヘッダーの1列目用)。
func TrimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// getColIndex はヘッダー名から列インデックスを取得するヘルパーです。
func getColIndex(header []string, required []string) (map[string]int, error) {
	colIndex := make(map[string]int)
	for i, colName := range header {
		colIndex[strings.TrimSpace(TrimBOM(colName))] = i
	}
	for _, req := range required {
		if _, ok := colIndex[req]; !ok {
			return nil, fmt.Errorf("必須ヘッダーが見つかりません: %s", req)
		}
	}
	return colIndex, nil
}
