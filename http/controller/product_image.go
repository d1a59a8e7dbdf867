package controller

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hldang/stockpile/entity"
	"github.com/hldang/stockpile/infra"
	"github.com/hldang/stockpile/service"
	"github.com/hldang/stockpile/utils"
)

const imageCacheTTL = 10 * time.Minute

func imageCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:images", productID)
}

// BulkSaveImages applies one atomic-in-intent batch of image creations,
// updates and deletions for a product. Files travel in the multipart field
// "files", descriptors as a JSON list in the form field "metadata".
func (ctrl *Controller) BulkSaveImages(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Invalid product id format: %v", err)
		utils.JSON400(c, "Invalid product id format")
		return
	}

	if _, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Product not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to parse multipart form: %v", err)
		utils.JSON400(c, "Failed to parse multipart form: "+err.Error())
		return
	}

	files := make([]service.UploadedFile, 0, len(form.File["files"]))
	for _, fileHeader := range form.File["files"] {
		f, err := fileHeader.Open()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to open uploaded file %s: %v", fileHeader.Filename, err)
			utils.JSON400(c, "Failed to read uploaded file: "+fileHeader.Filename)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to read uploaded file %s: %v", fileHeader.Filename, err)
			utils.JSON400(c, "Failed to read uploaded file: "+fileHeader.Filename)
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		files = append(files, service.UploadedFile{
			Content:      content,
			ContentType:  contentType,
			Size:         fileHeader.Size,
			OriginalName: fileHeader.Filename,
		})
	}

	metadataField := c.PostForm("metadata")
	if metadataField == "" {
		utils.JSON400(c, "metadata field is required")
		return
	}

	descriptors, err := service.ParseMetadata([]byte(metadataField))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Invalid metadata for product %s: %v", productID, err)
		utils.JSON400(c, "Invalid metadata: "+err.Error())
		return
	}

	ctx, span := ctrl.tracer.Start(ctx, "image.bulk_save",
		trace.WithAttributes(
			attribute.String("product.id", productID.String()),
			attribute.Int("batch.descriptors", len(descriptors)),
			attribute.Int("batch.files", len(files)),
		))
	images, err := ctrl.Images.BulkSave(ctx, productID, files, descriptors)
	span.End()
	if err != nil {
		if service.IsValidationError(err) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Bulk save rejected for product %s: %v", productID, err)
			utils.JSON400(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Bulk save failed for product %s: %v", productID, err)
		utils.JSON500(c, "Failed to save images")
		return
	}

	if err := ctrl.Infra.Redis.Delete(ctx, imageCacheKey(productID)); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to invalidate image cache for product %s: %v", productID, err)
	}

	// Deleted images sit under the pending-deletion prefix until the purge
	// worker erases them.
	for _, descriptor := range descriptors {
		if descriptor.Delete != nil && *descriptor.Delete && descriptor.ImageID != nil {
			err := ctrl.Infra.Produce.ImagePurgeService.PublishImagePurge(ctx, productID.String(), descriptor.ImageID.String())
			if err != nil {
				ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to schedule purge for image %s: %v", descriptor.ImageID, err)
			}
		}
	}

	ctrl.bulkSaveCount.Add(ctx, 1)
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Bulk save applied for product %s (%d descriptors, %d files)", productID, len(descriptors), len(files))
	utils.JSON200(c, images)
}

func (ctrl *Controller) ListProductImages(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Invalid product id format: %v", err)
		utils.JSON400(c, "Invalid product id format")
		return
	}

	var cached []entity.ProductImage
	if err := ctrl.Infra.Redis.Get(ctx, imageCacheKey(productID), &cached); err == nil {
		utils.JSON200(c, cached)
		return
	} else if !errors.Is(err, infra.ErrCacheMiss) {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Image cache read failed for product %s: %v", productID, err)
	}

	if _, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Product not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}

	images, err := ctrl.Repository.ProductImageRepo.FindByProductID(ctx, productID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images for product %s: %v", productID, err)
		utils.JSON500(c, "Failed to list images")
		return
	}

	if err := ctrl.Infra.Redis.Set(ctx, imageCacheKey(productID), images, imageCacheTTL); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to cache images for product %s: %v", productID, err)
	}

	utils.JSON200(c, images)
}
