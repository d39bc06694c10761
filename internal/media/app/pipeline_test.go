package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"social_story_service/internal/media/domain"
	msgdomain "social_story_service/internal/message/domain"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

// pngBytes 產一張實際可解碼的 PNG
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

// 測試 upload gate 的白名單與大小上限
func TestUploadGate(t *testing.T) {
	gate := NewUploadGate(t.TempDir())

	_, err := gate.Save(strings.NewReader("x"), "a.exe", "application/x-msdownload", 1)
	assert.True(t, errprocess.IsKind(err, errprocess.KindUnsupportedMedia))

	_, err = gate.Save(strings.NewReader("x"), "a.jpg", "image/jpeg", domain.MaxImageSize+1)
	assert.True(t, errprocess.IsKind(err, errprocess.KindPayloadTooLarge))

	data := pngBytes(t, 2, 3)
	accepted, err := gate.Save(bytes.NewReader(data), "a.png", "image/png", int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryImage, accepted.Category)
	assert.Equal(t, int64(len(data)), accepted.Size)
	// 落地檔名為 uuid，不沿用原始檔名
	assert.NotContains(t, accepted.StoredName, "a.png")
	assert.True(t, strings.HasSuffix(accepted.StoredName, ".png"))
	_, err = os.Stat(accepted.Path)
	assert.NoError(t, err)
}

// 測試圖片進件：解析尺寸、上傳、記帳
func TestPipelineIngestImage(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	pipeline := NewPipeline(storage, assets, &fakeProber{}, &fakeTranscoder{}, tmpDir)

	data := pngBytes(t, 640, 480)
	accepted, err := gate.Save(bytes.NewReader(data), "photo.png", "image/png", int64(len(data)))
	require.NoError(t, err)

	res, err := pipeline.Ingest(ctx, accepted, "photo.png")
	require.NoError(t, err)

	assert.Equal(t, msgdomain.MessageTypeImage, res.Payload.Type)
	assert.Equal(t, 640, res.Payload.Image.Width)
	assert.Equal(t, 480, res.Payload.Image.Height)
	assert.Len(t, storage.keys(), 1)
	assert.Equal(t, 1, assets.count())

	// 成功後暫存檔要清掉
	_, err = os.Stat(accepted.Path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, pipeline.Commit(ctx, res, "msg-1"))
	rows, _ := assets.FindByMessageID("msg-1")
	assert.Len(t, rows, 1)
	assert.Equal(t, domain.AssetCommitted, rows[0].Status)
}

// 測試圖片尺寸解析失敗時 pipeline 中止且不留任何東西
func TestPipelineIngestImageProbeFatal(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	pipeline := NewPipeline(storage, assets, &fakeProber{}, &fakeTranscoder{}, tmpDir)

	accepted, err := gate.Save(strings.NewReader("not an image"), "broken.png", "image/png", 12)
	require.NoError(t, err)

	_, err = pipeline.Ingest(ctx, accepted, "broken.png")
	assert.True(t, errprocess.IsKind(err, errprocess.KindProbeFailure))
	assert.Empty(t, storage.keys())
	assert.Equal(t, 0, assets.count())
	_, serr := os.Stat(accepted.Path)
	assert.True(t, os.IsNotExist(serr))
}

// 測試超過高度門檻的影片走轉檔分支，時長以壓縮檔 re-probe 為準
func TestPipelineIngestVideoTranscode(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	prober := &fakeProber{results: []*domain.ProbeResult{
		{DurationSec: 20, Width: 1920, Height: 1080, Size: 4 * 1024 * 1024},
		{DurationSec: 19.5, Width: 1280, Height: 720, Size: 2 * 1024 * 1024},
	}}
	transcoder := &fakeTranscoder{}
	pipeline := NewPipeline(storage, assets, prober, transcoder, tmpDir)

	accepted, err := gate.Save(strings.NewReader("fake video bits"), "clip.mp4", "video/mp4", 15)
	require.NoError(t, err)
	originalPath := accepted.Path

	res, err := pipeline.Ingest(ctx, accepted, "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, 1, transcoder.compressed)
	assert.Equal(t, 19.5, res.Payload.Video.DurationSec)
	assert.Equal(t, 720, res.Payload.Video.Height)
	assert.Equal(t, int64(2*1024*1024), res.Payload.Size)
	assert.True(t, strings.HasPrefix(res.Payload.URL, "media/compressed_"))
	assert.NotEmpty(t, res.Payload.Video.Thumbnail)
	// 影片加縮圖共兩個物件
	assert.Len(t, storage.keys(), 2)
	assert.Equal(t, 2, assets.count())

	// 原始檔轉檔後即刪除
	_, serr := os.Stat(originalPath)
	assert.True(t, os.IsNotExist(serr))
}

// 測試超過大小門檻但未超過高度門檻的影片也走轉檔分支，
// 壓縮後大小小於原始大小
func TestPipelineIngestVideoTranscodeBySize(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	prober := &fakeProber{results: []*domain.ProbeResult{
		{DurationSec: 30, Width: 1280, Height: 720, Size: domain.TranscodeSizeThreshold + 1},
		{DurationSec: 29.8, Width: 960, Height: 540, Size: 3 * 1024 * 1024},
	}}
	transcoder := &fakeTranscoder{}
	pipeline := NewPipeline(storage, assets, prober, transcoder, tmpDir)

	data := bytes.Repeat([]byte("v"), domain.TranscodeSizeThreshold+1)
	accepted, err := gate.Save(bytes.NewReader(data), "big.mp4", "video/mp4", int64(len(data)))
	require.NoError(t, err)
	require.Greater(t, accepted.Size, int64(domain.TranscodeSizeThreshold))

	res, err := pipeline.Ingest(ctx, accepted, "big.mp4")
	require.NoError(t, err)

	assert.Equal(t, 1, transcoder.compressed)
	assert.True(t, strings.HasPrefix(res.Payload.URL, "media/compressed_"))
	// 大小以壓縮檔 re-probe 為準，且小於原始大小
	assert.Equal(t, int64(3*1024*1024), res.Payload.Size)
	assert.Less(t, res.Payload.Size, accepted.Size)
	assert.Equal(t, 540, res.Payload.Video.Height)
}

// 測試未達門檻的影片不轉檔
func TestPipelineIngestVideoNoTranscode(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	prober := &fakeProber{results: []*domain.ProbeResult{
		{DurationSec: 8, Width: 640, Height: 360, Size: 1024},
	}}
	transcoder := &fakeTranscoder{}
	pipeline := NewPipeline(storage, assets, prober, transcoder, tmpDir)

	accepted, err := gate.Save(strings.NewReader("small video"), "clip.mp4", "video/mp4", 11)
	require.NoError(t, err)

	res, err := pipeline.Ingest(ctx, accepted, "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, 0, transcoder.compressed)
	assert.Equal(t, 8.0, res.Payload.Video.DurationSec)
	assert.False(t, strings.HasPrefix(res.Payload.URL, "media/compressed_"))
}

// 測試縮圖失敗時回滾：物件、帳冊、暫存檔都不留
func TestPipelineIngestVideoRollback(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	prober := &fakeProber{results: []*domain.ProbeResult{
		{DurationSec: 8, Width: 640, Height: 360, Size: 1024},
	}}
	transcoder := &fakeTranscoder{thumbnailErr: assert.AnError}
	pipeline := NewPipeline(storage, assets, prober, transcoder, tmpDir)

	accepted, err := gate.Save(strings.NewReader("small video"), "clip.mp4", "video/mp4", 11)
	require.NoError(t, err)

	_, err = pipeline.Ingest(ctx, accepted, "clip.mp4")
	assert.True(t, errprocess.IsKind(err, errprocess.KindTranscodeFailure))

	assert.Empty(t, storage.keys())
	assert.Equal(t, 0, assets.count())
	left, _ := os.ReadDir(tmpDir)
	assert.Empty(t, left)
}

// 測試非 PDF 文件與語音進件
func TestPipelineIngestDocumentAndVoice(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	prober := &fakeProber{results: []*domain.ProbeResult{{DurationSec: 3.2, Size: 2048}}}
	pipeline := NewPipeline(storage, assets, prober, &fakeTranscoder{}, tmpDir)

	accepted, err := gate.Save(strings.NewReader("plain text"), "note.txt", "text/plain", 10)
	require.NoError(t, err)
	res, err := pipeline.Ingest(ctx, accepted, "note.txt")
	require.NoError(t, err)
	assert.Equal(t, msgdomain.MessageTypeDocument, res.Payload.Type)
	assert.NotNil(t, res.Payload.Document)

	accepted, err = gate.Save(strings.NewReader("voice bits"), "memo.mp3", "audio/mpeg", 10)
	require.NoError(t, err)
	res, err = pipeline.Ingest(ctx, accepted, "memo.mp3")
	require.NoError(t, err)
	assert.Equal(t, msgdomain.MessageTypeVoice, res.Payload.Type)
	assert.Equal(t, 3.2, res.Payload.Voice.DurationSec)
}

// 測試刪除訊息時移除物件與帳冊
func TestPipelineRemoveArtifacts(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gate := NewUploadGate(tmpDir)
	storage := newFakeObjectStorage()
	assets := newFakeAssetRepo()
	pipeline := NewPipeline(storage, assets, &fakeProber{}, &fakeTranscoder{}, tmpDir)

	data := pngBytes(t, 2, 2)
	accepted, err := gate.Save(bytes.NewReader(data), "x.png", "image/png", int64(len(data)))
	require.NoError(t, err)
	res, err := pipeline.Ingest(ctx, accepted, "x.png")
	require.NoError(t, err)
	require.NoError(t, pipeline.Commit(ctx, res, "msg-9"))

	pipeline.RemoveArtifacts(ctx, res.Payload, "msg-9")
	assert.Empty(t, storage.keys())
	assert.Equal(t, 0, assets.count())
}
