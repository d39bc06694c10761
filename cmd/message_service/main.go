package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	mediaapp "social_story_service/internal/media/app"
	mediarepo "social_story_service/internal/media/repository"
	memberapp "social_story_service/internal/member/app"
	memberrepo "social_story_service/internal/member/repository"
	"social_story_service/internal/message/app"
	"social_story_service/internal/message/repository"
	"social_story_service/internal/message/router"
	notifapp "social_story_service/internal/notification/app"
	storyrepo "social_story_service/internal/story/repository"
	"social_story_service/pkg/config"
	"social_story_service/pkg/database"
	"social_story_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MessageService, config.EnvConfig.MessageServiceLogPath)

	cfg := config.LoadConfig[config.Message](config.EnvConfig.MessageService, config.EnvConfig.MessageServiceYAMLPath)

	// 1. 建立 Mongo 連線 (存對話與訊息)
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

	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	storyRepo := storyrepo.NewMongoStoryRepository(mongo.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("conversation index 建立失敗", zap.Error(err))
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("message index 建立失敗", zap.Error(err))
	}

	// 2. 連線 PostgreSQL (追蹤關係 / 媒體資產帳本)
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

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr: dsn,

		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}

	// 自動遷移媒體資產資料表
	assetRepo := mediarepo.NewAssetRepo(db)
	if err := assetRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 3. 初始化 MinIO 客戶端 (媒體物件儲存)
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   cfg.MinIO.Endpoint,
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.Bucket,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to minio after retries",
			zap.String("address", fmt.Sprintf("[%s]", cfg.MinIO.Endpoint)),
			zap.Error(err),
		)
	}

	// 4. 建立 Redis 連線 (追蹤名單快取)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	followCache := database.NewRedisRepository[[]string](redisClient)
	memberUC := memberapp.NewMemberUseCase(memberrepo.NewMemberRepository(pool), followCache)

	// 5. 建立 RabbitMQ 連線 (通知事件)
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

	// 6. 組媒體處理管線
	ffmpeg := mediaapp.NewFFmpegTool(cfg.Media.ProbeTimeout, cfg.Media.FFmpegTimeout)
	pipeline := mediaapp.NewPipeline(minioClient, assetRepo, ffmpeg, ffmpeg, cfg.Media.TmpDir)
	gate := mediaapp.NewUploadGate(cfg.Media.TmpDir)

	usecase := app.NewMessageUseCase(convRepo, msgRepo, storyRepo, memberUC, pipeline, publisher)

	// 7. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MessageServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewMessageHandler(usecase, gate, pipeline))

	port := ":" + cfg.Port
	log.Printf("Message Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
