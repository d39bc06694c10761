package app

import (
	"context"
	"fmt"

	"social_story_service/internal/notification/domain"
	"social_story_service/internal/notification/repository"
	errprocess "social_story_service/pkg/err"
)

// NotificationUseCase 這裡封裝了對外提供的應用服務
type NotificationUseCase interface {
	GetNotifications(ctx context.Context, recipientID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
}

type notificationUseCase struct {
	notifRepo repository.NotificationRepository
}

// NewNotificationUseCase 建立一個新的 NotificationUseCase
func NewNotificationUseCase(notifRepo repository.NotificationRepository) NotificationUseCase {
	return &notificationUseCase{notifRepo: notifRepo}
}

// GetNotifications 取用戶通知，新到舊
func (uc *notificationUseCase) GetNotifications(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	notifications, err := uc.notifRepo.FindByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 通知列表取得失敗", recipientID), err)
	}
	return notifications, nil
}

// UnreadCount 未讀通知數
func (uc *notificationUseCase) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	count, err := uc.notifRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 未讀數取得失敗", recipientID), err)
	}
	return count, nil
}

// MarkAsRead 標記單筆已讀，重複標記為 no-op
func (uc *notificationUseCase) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	if err := uc.notifRepo.MarkRead(ctx, notificationID, recipientID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("notification[%s] 已讀標記失敗", notificationID), err)
	}
	return nil
}

// MarkAllAsRead 標記全部已讀
func (uc *notificationUseCase) MarkAllAsRead(ctx context.Context, recipientID string) error {
	if err := uc.notifRepo.MarkAllRead(ctx, recipientID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 全部已讀標記失敗", recipientID), err)
	}
	return nil
}
