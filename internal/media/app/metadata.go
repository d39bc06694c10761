package app

import (
	"bytes"
	"fmt"
	"image"
	"os"

	// 註冊 image.DecodeConfig 支援的格式
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"social_story_service/internal/media/domain"
	errprocess "social_story_service/pkg/err"

	"github.com/ledongthuc/pdf"
)

// pdfPreviewLen 文件預覽只取前 500 字元
const pdfPreviewLen = 500

// imageDimensions 解析圖片尺寸，只讀 header 不解整張圖；
// 解析失敗視為 pipeline 失敗
func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("圖片[%s] 開啟失敗", path), err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errprocess.Wrap(errprocess.KindProbeFailure, fmt.Sprintf("圖片[%s] 尺寸解析失敗", path), err)
	}
	return cfg.Width, cfg.Height, nil
}

// pdfPreview 取 PDF 頁數與前 500 字元的文字預覽。
// 失敗不中斷 pipeline，呼叫端記 log 後以零值繼續
func pdfPreview(path string) (*domain.PDFInfo, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("PDF[%s] 開啟失敗: %w", path, err)
	}
	defer f.Close()

	info := &domain.PDFInfo{PageCount: reader.NumPage()}

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("PDF[%s] 取文字失敗: %w", path, err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("PDF[%s] 讀取文字失敗: %w", path, err)
	}

	text := []rune(buf.String())
	if len(text) > pdfPreviewLen {
		text = text[:pdfPreviewLen]
	}
	info.Preview = string(text)
	return info, nil
}
