package infra

import (
	"fmt"

	"github.com/hldang/stockpile/config"
	"github.com/hldang/stockpile/infra/produce"
	"github.com/hldang/stockpile/storage"
)

type Infra struct {
	Postgres *PostgresClient
	Redis    *RedisClient
	RabbitMQ *RabbitMQClient
	Minio    *MinioClient
	Garage   *GarageClient
	Logger   *LoggerClient
	Produce  *produce.Produce

	// Storage is the backend selected by STORAGE_DRIVER; everything that
	// touches the object store goes through it.
	Storage storage.Backend
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	var minio *MinioClient
	var garage *GarageClient
	var backend storage.Backend
	switch cfg.EnvConfig.Storage.Driver {
	case "minio":
		minio = InitMinioClient(cfg.EnvConfig)
		if minio == nil {
			panic("Failed to initialize MinIO service")
		}
		backend = minio
	case "garage":
		garage = InitGarageClient(cfg.EnvConfig)
		if garage == nil {
			panic("Failed to initialize Garage service")
		}
		backend = garage
	default:
		panic(fmt.Sprintf("Unknown storage driver: %s", cfg.EnvConfig.Storage.Driver))
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	infraInstance = &Infra{
		Postgres: postgres,
		Redis:    redis,
		RabbitMQ: rabbitMQ,
		Minio:    minio,
		Garage:   garage,
		Logger:   logger,
		Produce:  produceService,
		Storage:  backend,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
