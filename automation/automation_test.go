package automation

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintPDF(t *testing.T) {
	if _, found := launcher.LookPath(); !found {
		t.Skip("Chromium が見つからないためスキップします")
	}

	data, err := PrintPDF(context.Background(), `<html><body><h1>御請求書</h1></body></html>`)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
