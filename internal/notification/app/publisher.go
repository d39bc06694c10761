package app

import (
	"context"
	"encoding/json"
	"fmt"

	"social_story_service/internal/notification/domain"
	"social_story_service/pkg/database"
)

// RabbitPublisher 把通知事件發到 RabbitMQ 佇列，
// 給 story/message usecase 當 EventPublisher 用
type RabbitPublisher struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitPublisher create RabbitPublisher and declare the queue
func NewRabbitPublisher(rabbit database.RabbitRepo) (*RabbitPublisher, error) {
	_, err := rabbit.GetRabbit().QueueDeclare(
		domain.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("queue[%s] 宣告失敗: %w", domain.QueueName, err)
	}
	return &RabbitPublisher{rabbit: rabbit, queue: domain.QueueName}, nil
}

// Publish 序列化事件後送進佇列
func (p *RabbitPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("通知事件序列化失敗: %w", err)
	}
	return p.rabbit.Publish("", p.queue, false, false, amqpPublishing(body))
}
