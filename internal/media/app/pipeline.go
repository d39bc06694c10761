package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mediadomain "social_story_service/internal/media/domain"
	"social_story_service/internal/media/repository"
	msgdomain "social_story_service/internal/message/domain"
	"social_story_service/pkg/database"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
)

// objectPrefix MinIO 上媒體物件的固定前綴
const objectPrefix = "media/"

// Ingester 媒體進件，由 message usecase 呼叫
type Ingester interface {
	// Ingest 跑完整條 pipeline，任何失敗都會清掉本次寫入的檔案與物件
	Ingest(ctx context.Context, in *Accepted, originalName string) (*IngestResult, error)
	// Commit 訊息落地後把資產帳冊標記為 committed
	Commit(ctx context.Context, res *IngestResult, messageID string) error
	// Rollback 訊息落地失敗時清掉本次上傳的物件與帳冊列
	Rollback(ctx context.Context, res *IngestResult)
	// RemoveArtifacts 刪除訊息時連同物件與帳冊一起移除，best-effort
	RemoveArtifacts(ctx context.Context, payload *msgdomain.MediaPayload, messageID string)
}

// IngestResult pipeline 成功的產出
type IngestResult struct {
	Payload  *msgdomain.MediaPayload
	AssetIDs []uint
}

// Pipeline 媒體處理管線：分類、解析、轉檔、縮圖、上傳、記帳
type Pipeline struct {
	storage    database.MinIOClientRepo
	assets     repository.AssetRepo
	prober     Prober
	transcoder Transcoder
	tmpDir     string
}

// NewPipeline create media Pipeline
func NewPipeline(
	storage database.MinIOClientRepo,
	assets repository.AssetRepo,
	prober Prober,
	transcoder Transcoder,
	tmpDir string,
) *Pipeline {
	return &Pipeline{
		storage:    storage,
		assets:     assets,
		prober:     prober,
		transcoder: transcoder,
		tmpDir:     tmpDir,
	}
}

// rollback 記錄本次嘗試寫下的所有東西，失敗時逐一清掉
type rollback struct {
	localFiles []string
	objectKeys []string
	assetIDs   []uint
}

func (rb *rollback) run(ctx context.Context, p *Pipeline) {
	for _, path := range rb.localFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Log.Errorf(fmt.Sprintf("rollback 暫存檔[%s] 移除失敗:", path), err)
		}
	}
	for _, key := range rb.objectKeys {
		if err := p.storage.RemoveFile(ctx, key); err != nil {
			logger.Log.Errorf(fmt.Sprintf("rollback 物件[%s] 移除失敗:", key), err)
		}
	}
	if err := p.assets.DeletePending(rb.assetIDs); err != nil {
		logger.Log.Errorf("rollback 資產帳冊清除失敗:", err)
	}
}

// Ingest 任一步失敗（PDF 預覽除外）即中止並回滾，不會留下訊息
func (p *Pipeline) Ingest(ctx context.Context, in *Accepted, originalName string) (result *IngestResult, err error) {
	rb := &rollback{localFiles: []string{in.Path}}
	defer func() {
		if err != nil {
			rb.run(ctx, p)
			return
		}
		// 成功時物件已在 MinIO，本機暫存檔一律清掉
		for _, path := range rb.localFiles {
			os.Remove(path)
		}
	}()

	payload := &msgdomain.MediaPayload{
		FileName:    originalName,
		ContentType: in.ContentType,
		Size:        in.Size,
	}

	uploadPath := in.Path
	storedName := in.StoredName
	var thumbPath string

	switch in.Category {
	case mediadomain.CategoryImage:
		payload.Type = msgdomain.MessageTypeImage
		width, height, derr := imageDimensions(in.Path)
		if derr != nil {
			return nil, derr
		}
		payload.Image = &msgdomain.ImageInfo{Width: width, Height: height}

	case mediadomain.CategoryDocument:
		payload.Type = msgdomain.MessageTypeDocument
		payload.Document = &msgdomain.DocumentInfo{}
		if in.ContentType == "application/pdf" {
			info, perr := pdfPreview(in.Path)
			if perr != nil {
				// 預覽失敗只 degrade，不中斷
				logger.Log.Errorf(fmt.Sprintf("文件[%s] PDF 預覽失敗:", originalName), perr)
			} else {
				payload.Document.PageCount = info.PageCount
				payload.Document.Preview = info.Preview
			}
		}

	case mediadomain.CategoryVideo:
		payload.Type = msgdomain.MessageTypeVideo
		probed, perr := p.prober.Probe(ctx, in.Path)
		if perr != nil {
			return nil, errprocess.Wrap(errprocess.KindProbeFailure, fmt.Sprintf("影片[%s] probe 失敗", originalName), perr)
		}

		if in.Size > mediadomain.TranscodeSizeThreshold || probed.Height > mediadomain.TranscodeHeightThreshold {
			compressedName := "compressed_" + strings.TrimSuffix(storedName, filepath.Ext(storedName)) + ".mp4"
			compressedPath := filepath.Join(p.tmpDir, compressedName)
			rb.localFiles = append(rb.localFiles, compressedPath)

			if terr := p.transcoder.Compress(ctx, in.Path, compressedPath); terr != nil {
				return nil, errprocess.Wrap(errprocess.KindTranscodeFailure, fmt.Sprintf("影片[%s] 壓縮失敗", originalName), terr)
			}
			// 最終時長與大小以壓縮檔重新 probe 的結果為準
			reprobed, rerr := p.prober.Probe(ctx, compressedPath)
			if rerr != nil {
				return nil, errprocess.Wrap(errprocess.KindProbeFailure, fmt.Sprintf("影片[%s] 壓縮檔 probe 失敗", originalName), rerr)
			}
			os.Remove(in.Path)
			probed = reprobed
			uploadPath = compressedPath
			storedName = compressedName
			payload.ContentType = "video/mp4"
			payload.Size = reprobed.Size
		}
		payload.Video = &msgdomain.VideoInfo{
			DurationSec: probed.DurationSec,
			Width:       probed.Width,
			Height:      probed.Height,
		}

		thumbName := "thumb_" + strings.TrimSuffix(storedName, filepath.Ext(storedName)) + ".jpg"
		thumbPath = filepath.Join(p.tmpDir, thumbName)
		rb.localFiles = append(rb.localFiles, thumbPath)
		if terr := p.transcoder.Thumbnail(ctx, uploadPath, thumbPath); terr != nil {
			return nil, errprocess.Wrap(errprocess.KindTranscodeFailure, fmt.Sprintf("影片[%s] 縮圖失敗", originalName), terr)
		}
		payload.Video.Thumbnail = objectPrefix + thumbName

	case mediadomain.CategoryAudio:
		payload.Type = msgdomain.MessageTypeVoice
		probed, perr := p.prober.Probe(ctx, in.Path)
		if perr != nil {
			return nil, errprocess.Wrap(errprocess.KindProbeFailure, fmt.Sprintf("語音[%s] probe 失敗", originalName), perr)
		}
		payload.Voice = &msgdomain.VoiceInfo{DurationSec: probed.DurationSec}
	}

	payload.URL = objectPrefix + storedName

	result = &IngestResult{Payload: payload}
	if err = p.store(ctx, rb, result, payload.URL, uploadPath, payload.ContentType, payload.Size); err != nil {
		return nil, err
	}
	if thumbPath != "" {
		if err = p.store(ctx, rb, result, payload.Video.Thumbnail, thumbPath, "image/jpeg", fileSize(thumbPath)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// store 上傳物件並記 pending 帳冊列
func (p *Pipeline) store(ctx context.Context, rb *rollback, result *IngestResult, objectKey, path, contentType string, size int64) error {
	if err := p.storage.UploadFile(ctx, objectKey, path, contentType); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("物件[%s] 上傳失敗", objectKey), err)
	}
	rb.objectKeys = append(rb.objectKeys, objectKey)

	asset := &mediadomain.MediaAsset{
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
		Status:      mediadomain.AssetPending,
	}
	if err := p.assets.Create(asset); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("物件[%s] 帳冊寫入失敗", objectKey), err)
	}
	rb.assetIDs = append(rb.assetIDs, asset.ID)
	result.AssetIDs = append(result.AssetIDs, asset.ID)
	return nil
}

// Commit 把帳冊列綁上訊息
func (p *Pipeline) Commit(ctx context.Context, res *IngestResult, messageID string) error {
	if err := p.assets.Commit(res.AssetIDs, messageID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 資產 commit 失敗", messageID), err)
	}
	return nil
}

// Rollback 清除已上傳的物件與 pending 帳冊列
func (p *Pipeline) Rollback(ctx context.Context, res *IngestResult) {
	rb := &rollback{
		objectKeys: res.Payload.ObjectKeys(),
		assetIDs:   res.AssetIDs,
	}
	rb.run(ctx, p)
}

// RemoveArtifacts 依 payload 移除物件與帳冊，失敗只記錄
func (p *Pipeline) RemoveArtifacts(ctx context.Context, payload *msgdomain.MediaPayload, messageID string) {
	for _, key := range payload.ObjectKeys() {
		if err := p.storage.RemoveFile(ctx, key); err != nil {
			logger.Log.Errorf(fmt.Sprintf("物件[%s] 移除失敗:", key), err)
		}
	}
	if err := p.assets.DeleteByMessageID(messageID); err != nil {
		logger.Log.Errorf(fmt.Sprintf("message[%s] 資產帳冊移除失敗:", messageID), err)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
