package automation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
)

// A4 (inch)
const (
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.4
)

// PrintTimeout は1回の PDF 出力に許す最大時間です。
var PrintTimeout = 60 * time.Second

// PrintPDF はヘッドレスの Chromium で HTML を開き、A4 の PDF を返します。
func PrintPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, PrintTimeout)
	defer cancel()

	// Leakless(false) でセキュリティソフト対策
	l := launcher.New().
		Headless(true).
		Leakless(false).
		Context(ctx)
	defer l.Cleanup()

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("ブラウザの起動に失敗: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("ブラウザへの接続に失敗: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warnf("failed to close browser: %v", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("ページの作成に失敗: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("HTML の読み込みに失敗: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("ページの読み込み待ちに失敗: %w", err)
	}

	w, h, m := a4Width, a4Height, margin
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &w,
		PaperHeight:     &h,
		MarginTop:       &m,
		MarginBottom:    &m,
		MarginLeft:      &m,
		MarginRight:     &m,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("PDF の出力に失敗: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("PDF の読み取りに失敗: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("PDF が空です")
	}
	return data, nil
}
