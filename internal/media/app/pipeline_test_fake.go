package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"social_story_service/internal/media/domain"
)

// fakeObjectStorage in-memory 物件儲存，記錄 pipeline 的上傳與移除
type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string]string // objectKey -> contentType
	failKey string            // 上傳此 key 時回錯誤
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string]string{}}
}

func (f *fakeObjectStorage) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKey != "" && objectName == f.failKey {
		return fmt.Errorf("upload rejected: %s", objectName)
	}
	if _, err := os.Stat(filePath); err != nil {
		return err
	}
	f.objects[objectName] = contentType
	return nil
}

func (f *fakeObjectStorage) DownloadFile(ctx context.Context, objectName, destPath string) error {
	return nil
}

func (f *fakeObjectStorage) RemoveFile(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectName)
	return nil
}

func (f *fakeObjectStorage) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "http://minio/" + objectName, nil
}

func (f *fakeObjectStorage) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

// fakeAssetRepo in-memory 資產帳冊
type fakeAssetRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*domain.MediaAsset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{rows: map[uint]*domain.MediaAsset{}}
}

func (f *fakeAssetRepo) AutoMigrate() error { return nil }

func (f *fakeAssetRepo) Create(asset *domain.MediaAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	asset.ID = f.nextID
	copied := *asset
	f.rows[asset.ID] = &copied
	return nil
}

func (f *fakeAssetRepo) Commit(assetIDs []uint, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range assetIDs {
		if row, ok := f.rows[id]; ok {
			row.Status = domain.AssetCommitted
			row.MessageID = messageID
		}
	}
	return nil
}

func (f *fakeAssetRepo) DeletePending(assetIDs []uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range assetIDs {
		if row, ok := f.rows[id]; ok && row.Status == domain.AssetPending {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeAssetRepo) FindByMessageID(messageID string) ([]domain.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MediaAsset
	for _, row := range f.rows {
		if row.MessageID == messageID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) DeleteByMessageID(messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.MessageID == messageID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeAssetRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeProber 依呼叫順序回傳預設的 probe 結果
type fakeProber struct {
	mu      sync.Mutex
	results []*domain.ProbeResult
	err     error
	calls   int
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	return f.results[idx], nil
}

// fakeTranscoder 產出空檔案模擬轉檔與縮圖
type fakeTranscoder struct {
	compressErr  error
	thumbnailErr error
	compressed   int
}

func (f *fakeTranscoder) Compress(ctx context.Context, inputPath, outputPath string) error {
	if f.compressErr != nil {
		return f.compressErr
	}
	f.compressed++
	return os.WriteFile(outputPath, []byte("compressed"), 0o644)
}

func (f *fakeTranscoder) Thumbnail(ctx context.Context, inputPath, outputPath string) error {
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return os.WriteFile(outputPath, []byte("thumb"), 0o644)
}
