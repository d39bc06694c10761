package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"social_story_service/internal/media/domain"
)

// Prober 取媒體檔的時長與尺寸
type Prober interface {
	Probe(ctx context.Context, path string) (*domain.ProbeResult, error)
}

// Transcoder 影片壓縮與縮圖
type Transcoder interface {
	Compress(ctx context.Context, inputPath, outputPath string) error
	Thumbnail(ctx context.Context, inputPath, outputPath string) error
}

// ffprobeOutput ffprobe -print_format json 的輸出結構
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// FFmpegTool 以 ffmpeg/ffprobe 執行檔實作 Prober 與 Transcoder，
// 逾時一律視為 pipeline 失敗
type FFmpegTool struct {
	ProbeTimeout  time.Duration
	FFmpegTimeout time.Duration
}

// NewFFmpegTool create FFmpegTool
func NewFFmpegTool(probeTimeout, ffmpegTimeout time.Duration) *FFmpegTool {
	return &FFmpegTool{
		ProbeTimeout:  probeTimeout,
		FFmpegTimeout: ffmpegTimeout,
	}
}

// Probe 解析時長、尺寸與檔案大小
func (f *FFmpegTool) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe 失敗: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("ffprobe 輸出解析失敗: %w", err)
	}

	result := &domain.ProbeResult{}
	result.DurationSec, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	result.Size, _ = strconv.ParseInt(probed.Format.Size, 10, 64)
	if result.Size == 0 {
		if info, serr := os.Stat(path); serr == nil {
			result.Size = info.Size()
		}
	}
	for _, s := range probed.Streams {
		if s.CodecType == "video" && s.Width > 0 {
			result.Width = s.Width
			result.Height = s.Height
			break
		}
	}
	return result, nil
}

// Compress 壓縮影片：寬度上限 1280、1000k 碼率、aac 128k
func (f *FFmpegTool) Compress(ctx context.Context, inputPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.FFmpegTimeout)
	defer cancel()

	cmdArgs := []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-vf", "scale='min(1280,iw)':-2",
		"-b:v", "1000k",
		"-c:a", "aac",
		"-b:a", "128k",
		"-preset", "fast",
		"-movflags", "faststart",
		"-profile:v", "main",
		"-level", "3.1",
		"-crf", "23",
		"-y", outputPath,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("FFmpeg 壓縮錯誤: %v, output: %s", err, string(output))
	}
	return nil
}

// Thumbnail 取第 1 秒的畫面縮成 320x240
func (f *FFmpegTool) Thumbnail(ctx context.Context, inputPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.FFmpegTimeout)
	defer cancel()

	cmdArgs := []string{
		"-ss", "00:00:01",
		"-i", inputPath,
		"-vframes", "1",
		"-s", "320x240",
		"-y", outputPath,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("FFmpeg 縮圖錯誤: %v, output: %s", err, string(output))
	}
	return nil
}
