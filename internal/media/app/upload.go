package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"social_story_service/internal/media/domain"
	errprocess "social_story_service/pkg/err"

	"github.com/google/uuid"
)

// UploadGate 上傳入口：MIME 白名單、分類大小上限、
// 以 uuid 重新命名後落到本機暫存目錄
type UploadGate struct {
	TmpDir string
}

// NewUploadGate create UploadGate
func NewUploadGate(tmpDir string) *UploadGate {
	return &UploadGate{TmpDir: tmpDir}
}

// Accepted 通過 gate 的上傳檔
type Accepted struct {
	Path        string
	StoredName  string
	Category    domain.Category
	ContentType string
	Size        int64
}

// Save 驗證並落地上傳檔，拒收白名單外的 MIME 與超限的大小
func (g *UploadGate) Save(src io.Reader, fileName, contentType string, size int64) (*Accepted, error) {
	ext, ok := domain.ExtensionFor(contentType)
	if !ok {
		return nil, errprocess.New(errprocess.KindUnsupportedMedia,
			fmt.Sprintf("不支援的檔案類型: %s", contentType))
	}

	category := domain.CategoryOf(contentType)
	if size > category.SizeLimit() {
		return nil, errprocess.New(errprocess.KindPayloadTooLarge,
			fmt.Sprintf("%s 檔案大小 %d 超過上限 %d", category, size, category.SizeLimit()))
	}

	storedName := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	path := filepath.Join(g.TmpDir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("暫存檔[%s] 建立失敗", path), err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, category.SizeLimit()+1))
	if err != nil {
		os.Remove(path)
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("暫存檔[%s] 寫入失敗", path), err)
	}
	// multipart header 的 size 可能與實際不符，以寫入量再驗一次
	if written > category.SizeLimit() {
		os.Remove(path)
		return nil, errprocess.New(errprocess.KindPayloadTooLarge,
			fmt.Sprintf("%s 檔案大小超過上限 %d", category, category.SizeLimit()))
	}

	return &Accepted{
		Path:        path,
		StoredName:  storedName,
		Category:    category,
		ContentType: contentType,
		Size:        written,
	}, nil
}
