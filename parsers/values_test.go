package parsers

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingNumber(t *testing.T) {
	tests := map[string]string{
		"2.00L":   "2.00",
		"1,250kg": "1250",
		"１２３４５":   "12345",
		"  88 km": "88",
		"-5度":     "-5",
		"約100":    "",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, LeadingNumber(in), "input %q", in)
	}
}

func TestParseIntAndFloat(t *testing.T) {
	require.NotNil(t, ParseInt("1,250kg"))
	assert.Equal(t, 1250, *ParseInt("1,250kg"))
	assert.Equal(t, 12, *ParseInt("12.9"))
	assert.Nil(t, ParseInt("不明"))
	assert.Nil(t, ParseInt("99999999999999999999km"))
	assert.Nil(t, ParseInt("-3000000000"))
	require.NotNil(t, ParseInt("2147483647"))
	assert.Equal(t, math.MaxInt32, *ParseInt("2147483647"))

	require.NotNil(t, ParseFloat("2.00L"))
	assert.InDelta(t, 2.0, *ParseFloat("2.00L"), 1e-9)
	assert.Nil(t, ParseFloat(""))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023/3/15", "2023-03-15"},
		{"2023/03/05", "2023-03-05"},
		{"２０２３／３／１５", "2023-03-15"},
		{"2023年3月15日", "2023-03-15"},
		{"令和5年3月15日", "2023-03-15"},
		{"令和元年5月1日", "2019-05-01"},
		{"平成30年3月", "2018-03-01"},
		{"昭和64年1月7日", "1989-01-07"},
		{"R5.3.15", "2023-03-15"},
		{"H30/3/15", "2018-03-15"},
		{"h30.3.15", "2018-03-15"},
		{"2024-02-29", "2024-02-29"},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in)
		require.NotNil(t, got, tt.in)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), tt.in)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "未登録", "2023/2/30", "2023/13/1", "X5.3.15", "15/3/2023"} {
		assert.Nil(t, ParseDate(in), in)
	}
}

func TestParseDateIsMidnightLocal(t *testing.T) {
	got := ParseDate("2025/1/2")
	require.NotNil(t, got)
	assert.Equal(t, time.Local, got.Location())
	assert.Equal(t, 0, got.Hour())
}
