package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductImage struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	ObjectKey    string         `json:"object_key" gorm:"type:varchar(1024);not null"`
	ThumbnailKey string         `json:"thumbnail_key" gorm:"type:varchar(1024);not null"`
	Name         *string        `json:"name" gorm:"type:varchar(255)"`
	Description  *string        `json:"description" gorm:"type:varchar(1024)"`
	Active       bool           `json:"active" gorm:"not null;default:false"`
	Main         bool           `json:"main" gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
