package parsers

import (
	"math"
	"regexp"
	"seibi/kana"
	"strconv"
	"strings"
	"time"
)

var leadingNumberRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?`)

// LeadingNumber は "2.00L" や "1,250kg" の先頭の数値部分を返します。
// 全角数字は半角にし、桁区切りのカンマと空白は無視します。数値が無ければ空文字列です。
func LeadingNumber(s string) string {
	s = kana.NormalizeWidth(s)
	s = strings.NewReplacer(",", "", " ", "", "、", "").Replace(s)
	return leadingNumberRe.FindString(s)
}

// ParseInt は数値を取り出して整数にします (小数部は切り捨て)。
// 数値が無いときと 32bit 整数に収まらないときは nil です。
func ParseInt(s string) *int {
	f := ParseFloat(s)
	if f == nil || *f < math.MinInt32 || *f > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

// ParseFloat は数値を取り出します。失敗時は nil です。
func ParseFloat(s string) *float64 {
	num := LeadingNumber(s)
	if num == "" {
		return nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil
	}
	return &f
}

// 和暦の元年 (西暦での前年を足す)
var eraBase = map[string]int{
	"明治": 1867, "M": 1867,
	"大正": 1911, "T": 1911,
	"昭和": 1925, "S": 1925,
	"平成": 1988, "H": 1988,
	"令和": 2018, "R": 2018,
}

var (
	slashDateRe    = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	kanjiDateRe    = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`)
	eraKanjiDateRe = regexp.MustCompile(`^(明治|大正|昭和|平成|令和)(元|\d{1,2})年(\d{1,2})月(?:(\d{1,2})日)?$`)
	eraLetterRe    = regexp.MustCompile(`^([MTSHRmtshr])(\d{1,2})[./](\d{1,2})[./](\d{1,2})$`)
	isoDateRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// ParseDate は次の順で日付を解釈し、最初に一致したものを返します。
//
//	2006/1/2, 2006年1月2日, 令和5年3月15日 (元年・日の省略可), R5.3.15 / H30/3/15, 2006-01-02
//
// どれにも一致しない、または存在しない日付の場合は nil です。
func ParseDate(s string) *time.Time {
	s = strings.ReplaceAll(kana.NormalizeWidth(strings.TrimSpace(s)), " ", "")
	if s == "" {
		return nil
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := kanjiDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := eraKanjiDateRe.FindStringSubmatch(s); m != nil {
		year := 1
		if m[2] != "元" {
			year = atoi(m[2])
		}
		day := 1
		if m[4] != "" {
			day = atoi(m[4])
		}
		return makeDate(eraBase[m[1]]+year, atoi(m[3]), day)
	}
	if m := eraLetterRe.FindStringSubmatch(s); m != nil {
		return makeDate(eraBase[strings.ToUpper(m[1])]+atoi(m[2]), atoi(m[3]), atoi(m[4]))
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// makeDate は 2月30日 のような繰り上がりを不正として nil を返します。
func makeDate(y, m, d int) *time.Time {
	if m < 1 || m > 12 || d < 1 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}
