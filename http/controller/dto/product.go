package dto

import "encoding/json"

type CreateProductRequestDTO struct {
	SKU         string          `json:"sku" binding:"required,min=1,max=64"`
	Name        string          `json:"name" binding:"required,min=1,max=255"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity" binding:"min=0"`
	Attributes  json.RawMessage `json:"attributes"`
}

type UpdateProductRequestDTO struct {
	Name        *string         `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Quantity    *int64          `json:"quantity" binding:"omitempty,min=0"`
	Attributes  json.RawMessage `json:"attributes"`
}

type ListProductsResponseDTO struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
