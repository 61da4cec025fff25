// Package kana は車検証データ向けの全角・半角の正規化を行います。
package kana

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	halfVoiced     = '\uFF9E' // ﾞ
	halfSemiVoiced = '\uFF9F' // ﾟ

	combiningVoiced     = '\u3099'
	combiningSemiVoiced = '\u309A'

	spacingVoiced     = '゛'
	spacingSemiVoiced = '゜'

	prolongedSound = 'ー'
)

// 半角に寄せる全角記号
var punctuation = map[rune]rune{
	'　': ' ',
	'－': '-',
	'−': '-',
	'（': '(',
	'）': ')',
	'．': '.',
	'，': ',',
	'：': ':',
	'；': ';',
	'！': '!',
	'？': '?',
	'＋': '+',
	'＊': '*',
	'／': '/',
	'＝': '=',
}

// NormalizeWidth は英数字と記号を半角に、半角カナを全角に揃えます。
// 濁点・半濁点付きの半角カナは1文字にまとめます。
// 長音「ー」は英数字に隣接する場合のみ「-」にします (カタカナ語の長音は残す)。
// 出力に再適用しても結果は変わりません。
func NormalizeWidth(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(ComposeVoiced(s))
	for i, r := range runes {
		runes[i] = narrowRune(r)
	}

	out := make([]rune, len(runes))
	copy(out, runes)
	for i, r := range runes {
		if r != prolongedSound {
			continue
		}
		if (i > 0 && isASCIIAlnum(runes[i-1])) || (i+1 < len(runes) && isASCIIAlnum(runes[i+1])) {
			out[i] = '-'
		}
	}
	return string(out)
}

// HalfToFullKana は半角カナを対応する全角カナに置き換えるだけで、
// 濁点の結合は行いません (単独の ﾞ/ﾟ は ゛/゜ になります)。
func HalfToFullKana(s string) string {
	if !hasHalfKana(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(widenKana(r))
	}
	return b.String()
}

// ComposeVoiced は半角カナを全角にし、直後の ﾞ/ﾟ を前の文字と結合します
// (ｶﾞ → ガ)。結合できない記号は ゛/゜ として残します。
func ComposeVoiced(s string) string {
	if !hasHalfKana(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	havePrev := false
	flush := func() {
		if havePrev {
			b.WriteRune(prev)
			havePrev = false
		}
	}
	for _, r := range s {
		if (r == halfVoiced || r == halfSemiVoiced) && havePrev {
			mark := combiningVoiced
			if r == halfSemiVoiced {
				mark = combiningSemiVoiced
			}
			if composed, ok := compose(prev, mark); ok {
				prev = composed
				flush()
				continue
			}
		}
		flush()
		if isHalfKana(r) {
			prev = widenKana(r)
			havePrev = true
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

func compose(base, mark rune) (rune, bool) {
	s := norm.NFC.String(string([]rune{base, mark}))
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

func widenKana(r rune) rune {
	switch r {
	case halfVoiced:
		return spacingVoiced
	case halfSemiVoiced:
		return spacingSemiVoiced
	}
	if !isHalfKana(r) {
		return r
	}
	if w := width.LookupRune(r).Wide(); w != 0 {
		return w
	}
	return r
}

func narrowRune(r rune) rune {
	switch {
	case r >= '０' && r <= '９', r >= 'Ａ' && r <= 'Ｚ', r >= 'ａ' && r <= 'ｚ':
		return r - 0xFEE0
	}
	if n, ok := punctuation[r]; ok {
		return n
	}
	return r
}

// 半角カナ (句読点・括弧を含む) は U+FF61..U+FF9F
func isHalfKana(r rune) bool {
	return r >= 0xFF61 && r <= 0xFF9F
}

func hasHalfKana(s string) bool {
	for _, r := range s {
		if isHalfKana(r) {
			return true
		}
	}
	return false
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
