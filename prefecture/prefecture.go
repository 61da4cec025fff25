// Package prefecture は都道府県コード (1..47, JIS X 0401 順) と名称の対応を扱います。
package prefecture

import "strings"

// Unknown は都道府県が不明であることを表します。
const Unknown = 0

var names = [...]string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県",
	"岐阜県", "静岡県", "愛知県", "三重県",
	"滋賀県", "京都府", "大阪府", "兵庫県", "奈良県", "和歌山県",
	"鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県",
	"福岡県", "佐賀県", "長崎県", "熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

var reverseMap = func() map[string]int {
	m := make(map[string]int, len(names)*2)
	for i, n := range names {
		m[n] = i + 1
		// 「都府県」を省いた表記でも引けるようにする (北海道はそのまま)
		for _, suffix := range []string{"都", "府", "県"} {
			if short := strings.TrimSuffix(n, suffix); short != n {
				m[short] = i + 1
				break
			}
		}
	}
	return m
}()

// Count は都道府県の数です。
const Count = len(names)

// ResolveName はコードを名称に変換します。範囲外は空文字列です。
func ResolveName(code int) string {
	if code < 1 || code > len(names) {
		return ""
	}
	return names[code-1]
}

// ResolveCode は名称をコードに変換します。見つからなければ Unknown です。
func ResolveCode(name string) int {
	if code, ok := reverseMap[strings.TrimSpace(name)]; ok {
		return code
	}
	return Unknown
}

// Valid は 0 (不明) または 1..47 なら true です。
func Valid(code int) bool {
	return code >= Unknown && code <= len(names)
}

// InferFromAddress は住所の先頭にある都道府県名からコードを推定します。
func InferFromAddress(address string) int {
	addr := strings.TrimLeft(address, " 　")
	if addr == "" {
		return Unknown
	}
	best, bestLen := Unknown, 0
	for i, n := range names {
		if strings.HasPrefix(addr, n) && len(n) > bestLen {
			best, bestLen = i+1, len(n)
		}
	}
	return best
}
