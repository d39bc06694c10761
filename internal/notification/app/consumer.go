package app

import (
	"context"
	"encoding/json"
	"log"

	"social_story_service/internal/notification/domain"
	"social_story_service/internal/notification/repository"
	"social_story_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

func amqpPublishing(body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
}

// Consumer 消費通知事件並落地到 mongo
type Consumer struct {
	rabbitChannel *amqp.Channel
	notifRepo     repository.NotificationRepository
	queueName     string
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(rabbitChannel *amqp.Channel, notifRepo repository.NotificationRepository) *Consumer {
	return &Consumer{
		rabbitChannel: rabbitChannel,
		notifRepo:     notifRepo,
		queueName:     domain.QueueName,
	}
}

// StartConsumer 開始消費訊息
func (c *Consumer) StartConsumer(ctx context.Context) {
	msgs, err := c.rabbitChannel.Consume(
		c.queueName,
		"",    // consumer tag，留空由系統分配
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		log.Fatalf("無法開始消費 RabbitMQ 訊息: %v", err)
	}

	log.Println("Consumer 已啟動，等待通知事件...")

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				log.Println("RabbitMQ 消費 channel 已關閉")
				return
			}

			var event domain.Event
			if err := json.Unmarshal(d.Body, &event); err != nil {
				logger.Log.Errorf("解析通知事件失敗:", err)
				// 格式錯的訊息重排也不會成功，直接丟棄
				if err := d.Nack(false, false); err != nil {
					log.Printf("Nack 訊息失敗: %v", err)
				}
				continue
			}

			if err := c.persist(ctx, event); err != nil {
				logger.Log.Errorf("通知事件落地失敗:", err)
				if err := d.Nack(false, true); err != nil {
					log.Printf("Nack 訊息失敗: %v", err)
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				log.Printf("確認訊息失敗: %v", err)
			}
		case <-ctx.Done():
			log.Println("Consumer 收到停止訊號")
			return
		}
	}
}

// persist 事件轉成通知記錄寫進 mongo
func (c *Consumer) persist(ctx context.Context, event domain.Event) error {
	return c.notifRepo.Insert(ctx, &domain.Notification{
		ID:          uuid.New().String(),
		RecipientID: event.RecipientID,
		SenderID:    event.SenderID,
		Type:        event.Type,
		StoryID:     event.StoryID,
		MessageID:   event.MessageID,
		CreatedAt:   event.CreatedAt,
	})
}
