package domain

import "strings"

// 各類型的大小上限（bytes）
const (
	MaxImageSize    = 5 * 1024 * 1024
	MaxVideoSize    = 15 * 1024 * 1024
	MaxAudioSize    = 5 * 1024 * 1024
	MaxDocumentSize = 10 * 1024 * 1024
)

// 影片超過任一門檻才轉檔壓縮
const (
	TranscodeSizeThreshold   = 10 * 1024 * 1024
	TranscodeHeightThreshold = 720
)

// Category definition media category
type Category string

const (
	//CategoryImage image upload
	CategoryImage Category = "image"
	//CategoryVideo video upload
	CategoryVideo Category = "video"
	//CategoryAudio audio upload
	CategoryAudio Category = "audio"
	//CategoryDocument document upload
	CategoryDocument Category = "document"
)

// mimeExtensions 支援的 MIME 類型與對應副檔名，表外的一律拒收
var mimeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",

	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/x-msvideo": "avi",
	"video/webm":      "webm",

	"audio/mpeg": "mp3",
	"audio/wav":  "wav",
	"audio/ogg":  "ogg",

	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"text/plain":      "txt",
	"application/rtf": "rtf",
}

// ExtensionFor 取 MIME 對應的副檔名，不支援的類型回傳 false
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := mimeExtensions[contentType]
	return ext, ok
}

// CategoryOf 以 MIME prefix 分類，document 為剩餘類型的 fallback
func CategoryOf(contentType string) Category {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return CategoryImage
	case strings.HasPrefix(contentType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(contentType, "audio/"):
		return CategoryAudio
	default:
		return CategoryDocument
	}
}

// SizeLimit 各分類的大小上限
func (c Category) SizeLimit() int64 {
	switch c {
	case CategoryImage:
		return MaxImageSize
	case CategoryVideo:
		return MaxVideoSize
	case CategoryAudio:
		return MaxAudioSize
	default:
		return MaxDocumentSize
	}
}

// PDFInfo 文件預覽資訊，解析失敗時以零值 degrade
type PDFInfo struct {
	PageCount int
	Preview   string
}

// ProbeResult ffprobe 解析結果
type ProbeResult struct {
	DurationSec float64
	Width       int
	Height      int
	Size        int64
}
