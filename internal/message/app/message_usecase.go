package app

import (
	"context"
	"fmt"
	"time"

	mediaapp "social_story_service/internal/media/app"
	"social_story_service/internal/message/domain"
	"social_story_service/internal/message/repository"
	notifdomain "social_story_service/internal/notification/domain"
	storydomain "social_story_service/internal/story/domain"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"

	"github.com/google/uuid"
)

// StoryReader story_reply 需要讀動態做授權與快照
type StoryReader interface {
	FindByID(ctx context.Context, storyID string) (*storydomain.Story, error)
}

// FollowChecker 追蹤關係查詢，由 member service 提供
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, authorID string) (bool, error)
}

// EventPublisher 通知事件發布端，發布失敗不影響觸發操作
type EventPublisher interface {
	Publish(ctx context.Context, event notifdomain.Event) error
}

// MessageUseCase 這裡封裝了對外提供的應用服務
type MessageUseCase interface {
	SendText(ctx context.Context, req domain.SendTextReq) (*domain.Message, error)
	SendStoryReply(ctx context.Context, req domain.SendStoryReplyReq) (*domain.Message, error)
	SendMedia(ctx context.Context, req domain.SendMediaReq, ingested *mediaapp.IngestResult) (*domain.Message, error)
	GetConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
	GetMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error)
	MarkAsRead(ctx context.Context, userID, messageID string) error
	DeleteMessage(ctx context.Context, userID, messageID string) error
}

type messageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	stories  StoryReader
	follows  FollowChecker
	media    mediaapp.Ingester
	notifier EventPublisher
}

// 讓測試可以固定時間
var timeNow = time.Now

// NewMessageUseCase 建立一個新的 MessageUseCase
func NewMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	stories StoryReader,
	follows FollowChecker,
	media mediaapp.Ingester,
	notifier EventPublisher,
) MessageUseCase {
	return &messageUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		stories:  stories,
		follows:  follows,
		media:    media,
		notifier: notifier,
	}
}

// SendText 發文字訊息
func (uc *messageUseCase) SendText(ctx context.Context, req domain.SendTextReq) (*domain.Message, error) {
	if req.Content == "" {
		return nil, errprocess.New(errprocess.KindValidation, "text message requires content")
	}
	if req.RecipientID == "" || req.RecipientID == req.SenderID {
		return nil, errprocess.New(errprocess.KindValidation, "invalid recipient")
	}

	msg := &domain.Message{
		ID:       uuid.New().String(),
		SenderID: req.SenderID,
		Type:     domain.MessageTypeText,
		Content:  req.Content,
	}
	return uc.deliver(ctx, req.SenderID, req.RecipientID, msg, notifdomain.EventMessage)
}

// SendStoryReply 回覆動態：訊息送進與作者的 1對1 對話，
// 並快照動態內容讓回覆在動態過期後仍可讀
func (uc *messageUseCase) SendStoryReply(ctx context.Context, req domain.SendStoryReplyReq) (*domain.Message, error) {
	if req.Content == "" {
		return nil, errprocess.New(errprocess.KindValidation, "story reply requires content")
	}

	story, err := uc.stories.FindByID(ctx, req.StoryID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 查詢失敗", req.StoryID), err)
	}
	if story == nil {
		return nil, errprocess.New(errprocess.KindNotFound, fmt.Sprintf("story[%s] 不存在", req.StoryID))
	}
	if story.IsExpired(timeNow()) {
		return nil, errprocess.New(errprocess.KindValidation, fmt.Sprintf("story[%s] 已過期，無法回覆", req.StoryID))
	}
	if story.AuthorID == req.SenderID {
		return nil, errprocess.New(errprocess.KindValidation, "cannot reply to own story")
	}
	following, err := uc.follows.IsFollowing(ctx, req.SenderID, story.AuthorID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 追蹤關係查詢失敗", req.SenderID), err)
	}
	if !following {
		return nil, errprocess.New(errprocess.KindForbidden, fmt.Sprintf("user[%s] 沒有回覆 story[%s] 的權限", req.SenderID, req.StoryID))
	}

	snapshot := &domain.StorySnapshot{StoryID: story.ID, Content: story.Content}
	if story.Media != nil {
		snapshot.MediaURL = story.Media.URL
	}

	msg := &domain.Message{
		ID:       uuid.New().String(),
		SenderID: req.SenderID,
		Type:     domain.MessageTypeStoryReply,
		Content:  req.Content,
		Story:    snapshot,
	}
	return uc.deliver(ctx, req.SenderID, story.AuthorID, msg, notifdomain.EventStoryReply)
}

// SendMedia 媒體已過 pipeline，這裡負責訊息落地與資產 commit；
// 落地失敗時回滾 pipeline 產出，不留孤兒物件
func (uc *messageUseCase) SendMedia(ctx context.Context, req domain.SendMediaReq, ingested *mediaapp.IngestResult) (*domain.Message, error) {
	if req.RecipientID == "" || req.RecipientID == req.SenderID {
		uc.media.Rollback(ctx, ingested)
		return nil, errprocess.New(errprocess.KindValidation, "invalid recipient")
	}

	msg := &domain.Message{
		ID:       uuid.New().String(),
		SenderID: req.SenderID,
		Type:     ingested.Payload.Type,
		Media:    ingested.Payload,
	}
	delivered, err := uc.deliver(ctx, req.SenderID, req.RecipientID, msg, notifdomain.EventMessage)
	if err != nil {
		uc.media.Rollback(ctx, ingested)
		return nil, err
	}
	if err := uc.media.Commit(ctx, ingested, delivered.ID); err != nil {
		// 訊息已落地，帳冊標記失敗只記錄
		logger.Log.Errorf(fmt.Sprintf("message[%s] 資產 commit 失敗:", delivered.ID), err)
	}
	return delivered, nil
}

// deliver 訊息落地後更新對話的 last_message 與收件者未讀數
func (uc *messageUseCase) deliver(ctx context.Context, senderID, recipientID string, msg *domain.Message, eventType notifdomain.EventType) (*domain.Message, error) {
	conv, err := uc.convRepo.FindOrCreateDM(ctx, senderID, recipientID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 對話取得失敗", senderID), err)
	}

	now := timeNow()
	msg.ConversationID = conv.ID
	msg.ReadBy = []domain.ReadReceipt{{UserID: senderID, ReadAt: now}}
	msg.CreatedAt = now

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 寫入失敗", msg.ID), err)
	}
	if err := uc.convRepo.SetLastMessage(ctx, conv.ID, msg.ID, now); err != nil {
		uc.compensate(ctx, msg.ID)
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] last message 更新失敗", conv.ID), err)
	}
	if err := uc.convRepo.IncUnread(ctx, conv.ID, conv.Recipients(senderID)); err != nil {
		uc.compensate(ctx, msg.ID)
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] 未讀數更新失敗", conv.ID), err)
	}

	uc.notify(ctx, notifdomain.Event{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        eventType,
		MessageID:   msg.ID,
		StoryID:     storyIDOf(msg),
		CreatedAt:   now,
	})
	return msg, nil
}

// compensate 落地後續步驟失敗時把已寫入的訊息撤掉，
// 呼叫端拿到錯誤時不會留下半套的訊息
func (uc *messageUseCase) compensate(ctx context.Context, messageID string) {
	if err := uc.msgRepo.HardDelete(ctx, messageID); err != nil {
		logger.Log.Errorf(fmt.Sprintf("message[%s] 補償刪除失敗:", messageID), err)
	}
}

// GetConversations 對話列表，更新時間降冪，未讀數取呼叫者視角
func (uc *messageUseCase) GetConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	convs, err := uc.convRepo.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 對話列表取得失敗", userID), err)
	}

	result := make([]domain.ConversationSummary, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		summary := domain.ConversationSummary{
			Conversation: conv,
			UnreadCount:  conv.UnreadFor(userID),
		}
		if conv.LastMessageID != "" {
			// last message 是弱引用，撈不到就略過
			last, lerr := uc.msgRepo.FindByID(ctx, conv.LastMessageID)
			if lerr != nil {
				return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 查詢失敗", conv.LastMessageID), lerr)
			}
			if last != nil && !last.IsDeleted {
				summary.LastMessage = last
			}
		}
		result = append(result, summary)
	}
	return result, nil
}

// GetMessages 取對話訊息並把呼叫者的未讀數歸零
func (uc *messageUseCase) GetMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] 查詢失敗", conversationID), err)
	}
	if conv == nil {
		return nil, errprocess.New(errprocess.KindNotFound, fmt.Sprintf("conversation[%s] 不存在", conversationID))
	}
	if !conv.HasParticipant(userID) {
		return nil, errprocess.New(errprocess.KindForbidden, fmt.Sprintf("user[%s] 不在 conversation[%s] 裡", userID, conversationID))
	}

	msgs, err := uc.msgRepo.FindByConversation(ctx, conversationID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] 訊息取得失敗", conversationID), err)
	}

	if err := uc.convRepo.ResetUnread(ctx, conversationID, userID); err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] 未讀歸零失敗", conversationID), err)
	}
	return msgs, nil
}

// MarkAsRead 標記已讀，重複標記為 no-op
func (uc *messageUseCase) MarkAsRead(ctx context.Context, userID, messageID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 查詢失敗", messageID), err)
	}
	if msg == nil || msg.IsDeleted {
		return errprocess.New(errprocess.KindNotFound, fmt.Sprintf("message[%s] 不存在", messageID))
	}

	conv, err := uc.convRepo.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("conversation[%s] 查詢失敗", msg.ConversationID), err)
	}
	if conv == nil || !conv.HasParticipant(userID) {
		return errprocess.New(errprocess.KindForbidden, fmt.Sprintf("user[%s] 不在 conversation[%s] 裡", userID, msg.ConversationID))
	}

	if err := uc.msgRepo.MarkRead(ctx, messageID, userID, timeNow()); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 已讀標記失敗", messageID), err)
	}
	return nil
}

// DeleteMessage 只有發送者能刪；先移除媒體物件再軟刪除
func (uc *messageUseCase) DeleteMessage(ctx context.Context, userID, messageID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 查詢失敗", messageID), err)
	}
	if msg == nil || msg.IsDeleted {
		return errprocess.New(errprocess.KindNotFound, fmt.Sprintf("message[%s] 不存在", messageID))
	}
	if msg.SenderID != userID {
		return errprocess.New(errprocess.KindForbidden, fmt.Sprintf("user[%s] 不是 message[%s] 的發送者", userID, messageID))
	}

	if msg.Media != nil {
		uc.media.RemoveArtifacts(ctx, msg.Media, msg.ID)
	}
	if err := uc.msgRepo.SoftDelete(ctx, messageID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("message[%s] 刪除失敗", messageID), err)
	}
	return nil
}

// notify 通知為 fire-and-forget，失敗只記錄
func (uc *messageUseCase) notify(ctx context.Context, event notifdomain.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Publish(ctx, event); err != nil {
		logger.Log.Errorf(fmt.Sprintf("message[%s] 通知事件發布失敗:", event.MessageID), err)
	}
}

func storyIDOf(msg *domain.Message) string {
	if msg.Story != nil {
		return msg.Story.StoryID
	}
	return ""
}
