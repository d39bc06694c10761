package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"social_story_service/internal/notification/app"
	"social_story_service/internal/notification/domain"
	"social_story_service/internal/notification/repository"
	"social_story_service/internal/notification/router"
	"social_story_service/pkg/config"
	"social_story_service/pkg/database"
	"social_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.NotificationService, config.EnvConfig.NotificationServiceLogPath)

	cfg := config.LoadConfig[config.Notification](config.EnvConfig.NotificationService, config.EnvConfig.NotificationServiceYAMLPath)

	// 1. 建立 Mongo 連線 (存通知)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	notifRepo := repository.NewMongoNotificationRepository(mongo.Database)
	if err := notifRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("notification index 建立失敗", zap.Error(err))
	}

	// 2. 建立 RabbitMQ 連線並消化事件佇列
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Rabbit.User, cfg.Rabbit.Password, cfg.Rabbit.Host, cfg.Rabbit.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.Rabbit.RetryCount,
		RetryInterval: time.Duration(cfg.Rabbit.RetryInterval),
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.Rabbit.RetryCount, time.Duration(cfg.Rabbit.RetryInterval))
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer rabbitChannel.Close()

	if _, err := rabbitChannel.QueueDeclare(
		domain.QueueName, // queue name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // arguments
	); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	consumer := app.NewConsumer(rabbitChannel, notifRepo)
	go consumer.StartConsumer(ctx)

	usecase := app.NewNotificationUseCase(notifRepo)

	// 3. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.NotificationServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewNotificationHandler(usecase))

	port := ":" + cfg.Port
	log.Printf("Notification Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
