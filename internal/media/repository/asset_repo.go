package repository

import (
	"social_story_service/internal/media/domain"

	"gorm.io/gorm"
)

// AssetRepo definition media asset ledger
type AssetRepo interface {
	AutoMigrate() error
	Create(asset *domain.MediaAsset) error
	// Commit 把 pending 資產綁上訊息並標記為 committed
	Commit(assetIDs []uint, messageID string) error
	// DeletePending 清掉 pipeline 失敗後留下的帳冊列
	DeletePending(assetIDs []uint) error
	FindByMessageID(messageID string) ([]domain.MediaAsset, error)
	DeleteByMessageID(messageID string) error
}

type assetRepo struct {
	db *gorm.DB
}

// NewAssetRepo create AssetRepo
func NewAssetRepo(db *gorm.DB) AssetRepo {
	return &assetRepo{db: db}
}

func (r *assetRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.MediaAsset{})
}

func (r *assetRepo) Create(asset *domain.MediaAsset) error {
	return r.db.Create(asset).Error
}

func (r *assetRepo) Commit(assetIDs []uint, messageID string) error {
	if len(assetIDs) == 0 {
		return nil
	}
	return r.db.Model(&domain.MediaAsset{}).
		Where("id IN ?", assetIDs).
		Updates(map[string]interface{}{
			"status":     domain.AssetCommitted,
			"message_id": messageID,
		}).Error
}

func (r *assetRepo) DeletePending(assetIDs []uint) error {
	if len(assetIDs) == 0 {
		return nil
	}
	return r.db.
		Where("id IN ? AND status = ?", assetIDs, domain.AssetPending).
		Delete(&domain.MediaAsset{}).Error
}

func (r *assetRepo) FindByMessageID(messageID string) ([]domain.MediaAsset, error) {
	var assets []domain.MediaAsset
	if err := r.db.Where("message_id = ?", messageID).Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepo) DeleteByMessageID(messageID string) error {
	return r.db.Where("message_id = ?", messageID).Delete(&domain.MediaAsset{}).Error
}
