package domain

import "time"

// AssetStatus definition asset status
type AssetStatus string

const (
	//AssetPending 物件已上傳但訊息尚未落地
	AssetPending AssetStatus = "pending"
	//AssetCommitted 訊息落地後的最終狀態
	AssetCommitted AssetStatus = "committed"
)

// MediaAsset 媒體資產帳冊，追蹤每個上傳到 MinIO 的物件；
// pending 的資產在 pipeline 失敗時會連同物件一起清掉
type MediaAsset struct {
	ID          uint   `gorm:"primaryKey"`
	ObjectKey   string `gorm:"uniqueIndex"`
	ContentType string
	Size        int64
	Status      AssetStatus `gorm:"index"`
	MessageID   string      `gorm:"index"`
	CreatedAt   time.Time
}
