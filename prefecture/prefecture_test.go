package prefecture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveName(t *testing.T) {
	assert.Equal(t, "北海道", ResolveName(1))
	assert.Equal(t, "東京都", ResolveName(13))
	assert.Equal(t, "沖縄県", ResolveName(47))
	assert.Equal(t, "", ResolveName(0))
	assert.Equal(t, "", ResolveName(48))
	assert.Equal(t, 47, Count)
}

func TestResolveCode(t *testing.T) {
	assert.Equal(t, 13, ResolveCode("東京都"))
	assert.Equal(t, 13, ResolveCode("東京"))
	assert.Equal(t, 27, ResolveCode(" 大阪府 "))
	assert.Equal(t, 1, ResolveCode("北海道"))
	assert.Equal(t, Unknown, ResolveCode("どこか"))
}

func TestInferFromAddress(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"神奈川県横浜市中区1-1", 14},
		{"　京都府京都市左京区", 26},
		{"東京都千代田区", 13},
		{"北海道札幌市", 1},
		{"横浜市中区", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferFromAddress(tt.addr), tt.addr)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(0))
	assert.True(t, Valid(47))
	assert.False(t, Valid(-1))
	assert.False(t, Valid(48))
}
