package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hldang/stockpile/entity"
)

type ProductImageRepository struct {
	db *gorm.DB
}

func NewProductImageRepository(db *gorm.DB) *ProductImageRepository {
	return &ProductImageRepository{db: db}
}

// FindByProductID returns the product's images excluding soft-deleted rows,
// oldest first so batch results keep a stable order.
func (r *ProductImageRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error) {
	var images []entity.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ProductImageRepository) Create(ctx context.Context, image *entity.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ProductImageRepository) Updates(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entity.ProductImage{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ProductImageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.ProductImage{}, "id = ?", id).Error
}
