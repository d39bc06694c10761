package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	memberapp "social_story_service/internal/member/app"
	memberrepo "social_story_service/internal/member/repository"
	notifapp "social_story_service/internal/notification/app"
	"social_story_service/internal/story/app"
	"social_story_service/internal/story/repository"
	"social_story_service/internal/story/router"
	"social_story_service/pkg/config"
	"social_story_service/pkg/database"
	"social_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.StoryService, config.EnvConfig.StoryServiceLogPath)

	cfg := config.LoadConfig[config.Story](config.EnvConfig.StoryService, config.EnvConfig.StoryServiceYAMLPath)

	// 1. 建立 Mongo 連線 (存動態)
	ctx := context.Background()
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

	storyRepo := repository.NewMongoStoryRepository(mongo.Database)
	if err := storyRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("story index 建立失敗", zap.Error(err))
	}

	// 2. 連線 PostgreSQL (追蹤關係)
	sqlParams := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    sqlParams,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", sqlParams)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	// 3. 建立 Redis 連線 (追蹤名單快取)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	followCache := database.NewRedisRepository[[]string](redisClient)
	memberUC := memberapp.NewMemberUseCase(memberrepo.NewMemberRepository(pool), followCache)

	// 4. 建立 RabbitMQ 連線 (通知事件)
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

	publisher, err := notifapp.NewRabbitPublisher(database.NewRabbitRepository(rabbitChannel))
	if err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	// 5. 建立 Kafka Writer (觀看事件分析)
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		log.Fatalf("Kafka Writer 建立失敗: %v", err)
	}
	defer kafkaWriter.Close()

	usecase := app.NewStoryUseCase(storyRepo, memberUC, publisher, kafkaWriter)

	// 6. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.StoryServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewStoryHandler(usecase))

	port := ":" + cfg.Port
	log.Printf("Story Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
