package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"myopiadx/internal/config"
	"myopiadx/internal/detect"
	"myopiadx/internal/model"
	mysqlClient "myopiadx/internal/platform/mysql"
	rabbitmqClient "myopiadx/internal/platform/rabbitmq"
	redisClient "myopiadx/internal/platform/redis"
	"myopiadx/internal/repository"
	"myopiadx/internal/storage"
	"myopiadx/internal/worker"
)

type App struct {
	Config     *config.Config
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	Store      *storage.Store
	Detector   *detect.Detector
	ExamWorker *worker.ExamPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Specialist{}, &model.Exam{}, &model.ReportArtifact{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init artifact store failed: %w", err)
	}

	detector := detect.NewDetector(detect.Config{
		ModelPath:           cfg.Detector.ModelPath,
		LabelsPath:          cfg.Detector.LabelsPath,
		ONNXSharedLibPath:   cfg.Detector.ONNXSharedLibPath,
		ConfidenceThreshold: float32(cfg.Detector.ConfidenceThreshold),
		IOUThreshold:        float32(cfg.Detector.IOUThreshold),
	})

	examRepo := repository.NewExamRepository(mysqlDB)
	examWorker := worker.NewExamPersistWorker(mqConn, examRepo, cfg.RabbitMQ.ExamPersistQueue)
	if err := examWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start exam worker failed: %w", err)
	}

	return &App{
		Config:     cfg,
		MySQL:      mysqlDB,
		Redis:      redisCli,
		MQConn:     mqConn,
		Store:      store,
		Detector:   detector,
		ExamWorker: examWorker,
		StartedAt:  time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ExamWorker != nil {
		a.ExamWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Detector != nil {
		a.Detector.Close()
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
