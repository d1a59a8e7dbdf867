package controller

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hldang/stockpile/config"
	"github.com/hldang/stockpile/infra"
	"github.com/hldang/stockpile/repository"
	"github.com/hldang/stockpile/service"
	"github.com/hldang/stockpile/storage"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Images     *service.ImageService

	tracer        trace.Tracer
	bulkSaveCount metric.Int64Counter
}

func NewController(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	store := storage.NewClient(infra.Storage, cfg.EnvConfig.Storage.Bucket)
	thumbs := service.NewImagingThumbnailer(cfg.EnvConfig.Storage.ThumbnailMaxDimension)
	reconciler := service.Reconciler{
		MaxImagesPerProduct:  cfg.EnvConfig.Storage.MaxImagesPerProduct,
		NameMaxLength:        cfg.EnvConfig.Storage.ImageNameMaxLength,
		DescriptionMaxLength: cfg.EnvConfig.Storage.ImageDescMaxLength,
	}

	meter := otel.Meter("stockpile/http")
	bulkSaveCount, err := meter.Int64Counter("image_bulk_save_total",
		metric.WithDescription("Number of image bulk save requests applied"))
	if err != nil {
		panic(err)
	}

	return &Controller{
		Config:     cfg,
		Infra:      infra,
		Repository: repo,
		Images:     service.NewImageService(store, repo.ProductImageRepo, thumbs, reconciler),

		tracer:        otel.Tracer("stockpile/http"),
		bulkSaveCount: bulkSaveCount,
	}
}
