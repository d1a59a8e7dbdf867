package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hldang/stockpile/entity"
	"github.com/hldang/stockpile/http/controller/dto"
	"github.com/hldang/stockpile/utils"
)

func (ctrl *Controller) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] Invalid create request: %v", err)
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	if existing, err := ctrl.Repository.ProductRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] SKU %s already exists", req.SKU)
		utils.JSON409(c, "A product with this SKU already exists")
		return
	}

	product := &entity.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
	}
	if len(req.Attributes) > 0 {
		product.Attributes = datatypes.JSON(req.Attributes)
	}

	if err := ctrl.Repository.ProductRepo.Create(ctx, product); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to create product: %v", err)
		utils.JSON500(c, "Failed to create product")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Product] Created product %s (sku=%s)", product.ID, product.SKU)
	utils.JSON201(c, product)
}

func (ctrl *Controller) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] Invalid product id format: %v", err)
		utils.JSON400(c, "Invalid product id format")
		return
	}

	product, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Product not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}

	utils.JSON200(c, product)
}

func (ctrl *Controller) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		utils.JSON400(c, "limit must be between 1 and 100")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		utils.JSON400(c, "offset must be non-negative")
		return
	}

	products, total, err := ctrl.Repository.ProductRepo.List(ctx, limit, offset)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to list products: %v", err)
		utils.JSON500(c, "Failed to list products")
		return
	}

	utils.JSON200(c, dto.ListProductsResponseDTO{
		Items:  products,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (ctrl *Controller) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] Invalid product id format: %v", err)
		utils.JSON400(c, "Invalid product id format")
		return
	}

	var req dto.UpdateProductRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] Invalid update request: %v", err)
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	if _, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Product not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Quantity != nil {
		fields["quantity"] = *req.Quantity
	}
	if len(req.Attributes) > 0 {
		fields["attributes"] = datatypes.JSON(req.Attributes)
	}
	if len(fields) == 0 {
		utils.JSON400(c, "No fields to update")
		return
	}

	if err := ctrl.Repository.ProductRepo.Updates(ctx, productID, fields); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to update product %s: %v", productID, err)
		utils.JSON500(c, "Failed to update product")
		return
	}

	product, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to reload product %s: %v", productID, err)
		utils.JSON500(c, "Failed to reload product")
		return
	}

	utils.JSON200(c, product)
}

func (ctrl *Controller) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Product] Invalid product id format: %v", err)
		utils.JSON400(c, "Invalid product id format")
		return
	}

	if _, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Product not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}

	if err := ctrl.Repository.ProductRepo.SoftDelete(ctx, productID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Product] Failed to delete product %s: %v", productID, err)
		utils.JSON500(c, "Failed to delete product")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Product] Deleted product %s", productID)
	utils.JSON200(c, gin.H{"deleted": productID})
}
