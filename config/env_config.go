package config

import (
	"os"
	"strconv"
	"strings"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	Redis struct {
		Password  string
		Database  int
		RedisHost string
		RedisPort string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
		UseSSL    bool
	}
	Garage struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
	}
	Storage struct {
		Driver                string
		Bucket                string
		MaxImagesPerProduct   int
		ImageNameMaxLength    int
		ImageDescMaxLength    int
		ThumbnailMaxDimension int
	}
	CORS struct {
		AllowDomains string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")
	if config.Postgres.Port == "" {
		config.Postgres.Port = "5432"
	}

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.RedisHost = os.Getenv("REDIS_HOST")
	config.Redis.RedisPort = os.Getenv("REDIS_PORT")
	if config.Redis.RedisPort == "" {
		config.Redis.RedisPort = "6379"
	}

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	config.Minio.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	config.Minio.Region = os.Getenv("MINIO_REGION")
	if config.Minio.Region == "" {
		config.Minio.Region = "us-east-1"
	}
	config.Minio.UseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	config.Garage.Endpoint = os.Getenv("GARAGE_ENDPOINT")
	config.Garage.AccessKey = os.Getenv("GARAGE_ACCESS_KEY")
	config.Garage.SecretKey = os.Getenv("GARAGE_SECRET_KEY")
	config.Garage.Region = os.Getenv("GARAGE_REGION")
	if config.Garage.Region == "" {
		config.Garage.Region = "garage"
	}

	// Storage driver and limits
	config.Storage.Driver = os.Getenv("STORAGE_DRIVER")
	if config.Storage.Driver == "" {
		config.Storage.Driver = "minio"
	}
	config.Storage.Bucket = os.Getenv("STORAGE_BUCKET")
	if config.Storage.Bucket == "" {
		config.Storage.Bucket = "stockpile-media"
	}
	if val := os.Getenv("MAX_IMAGES_PER_PRODUCT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Storage.MaxImagesPerProduct = n
		}
	}
	if config.Storage.MaxImagesPerProduct == 0 {
		config.Storage.MaxImagesPerProduct = 10
	}
	if val := os.Getenv("IMAGE_NAME_MAX_LENGTH"); val != "" {
		config.Storage.ImageNameMaxLength, _ = strconv.Atoi(val)
	}
	if config.Storage.ImageNameMaxLength == 0 {
		config.Storage.ImageNameMaxLength = 255
	}
	if val := os.Getenv("IMAGE_DESCRIPTION_MAX_LENGTH"); val != "" {
		config.Storage.ImageDescMaxLength, _ = strconv.Atoi(val)
	}
	if config.Storage.ImageDescMaxLength == 0 {
		config.Storage.ImageDescMaxLength = 1024
	}
	if val := os.Getenv("THUMBNAIL_MAX_DIMENSION"); val != "" {
		config.Storage.ThumbnailMaxDimension, _ = strconv.Atoi(val)
	}
	if config.Storage.ThumbnailMaxDimension == 0 {
		config.Storage.ThumbnailMaxDimension = 320
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	// Grafana/OpenTelemetry
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	if strings.HasPrefix(grafanaEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	} else if strings.HasPrefix(grafanaEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = grafanaEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "stockpile-service"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	return &config
}
