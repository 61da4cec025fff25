package kana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWidth(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"full width digits", "ABC１２３", "ABC123"},
		{"full width letters", "ｔｏｙｏｔａ ＰＲＩＵＳ", "toyota PRIUS"},
		{"punctuation", "（株）　Ａ．Ｂ，Ｃ：１；！？＋＊／＝", "(株) A.B,C:1;!?+*/="},
		{"hyphens", "１２－３４−５６", "12-34-56"},
		{"prolonged mark next to digits", "ＺＶＷ３０ー１２３４５６７", "ZVW30-1234567"},
		{"prolonged mark in katakana kept", "コーヒー", "コーヒー"},
		{"half width kana", "ﾄﾖﾀ ﾌﾟﾘｳｽ", "トヨタ プリウス"},
		{"voiced merge", "ｶﾞｷﾞｸﾞｹﾞｺﾞ", "ガギグゲゴ"},
		{"semi voiced merge", "ﾊﾟﾋﾟﾌﾟﾍﾟﾎﾟ", "パピプペポ"},
		{"vu", "ｳﾞｨｯﾂ", "ヴィッツ"},
		{"standalone mark", "ﾞA", "゛A"},
		{"mark after non mergeable", "ｱﾞ", "ア゛"},
		{"half width prolonged", "ｺｰﾋｰ", "コーヒー"},
		{"kanji untouched", "品川３００あ１２－３４", "品川300あ12-34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWidth(tt.in))
		})
	}
}

func TestNormalizeWidthIdempotent(t *testing.T) {
	inputs := []string{
		"ABC１２３",
		"ｶﾞｿﾘﾝ",
		"Ａーー１",
		"ＡーーーＢ",
		"ｰｰ1ｰ",
		"ﾞﾟﾞ",
		"軽油　ﾃﾞｨｰｾﾞﾙ",
		"ヴィッツ",
		"ア゛",
		"",
	}
	for _, in := range inputs {
		once := NormalizeWidth(in)
		assert.Equal(t, once, NormalizeWidth(once), "input %q", in)
	}
}

func TestHalfToFullKana(t *testing.T) {
	assert.Equal(t, "カ゛", HalfToFullKana("ｶﾞ"))
	assert.Equal(t, "ハ゜", HalfToFullKana("ﾊﾟ"))
	assert.Equal(t, "「ア」、。・", HalfToFullKana("｢ｱ｣､｡･"))
	assert.Equal(t, "abc", HalfToFullKana("abc"))
}

func TestComposeVoiced(t *testing.T) {
	assert.Equal(t, "ガ", ComposeVoiced("ｶﾞ"))
	assert.Equal(t, "パン", ComposeVoiced("ﾊﾟﾝ"))
	assert.Equal(t, "ＡＢＣ", ComposeVoiced("ＡＢＣ"))
	assert.Equal(t, "ダイハツ", ComposeVoiced("ﾀﾞｲﾊﾂ"))
}
