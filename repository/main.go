package repository

import (
	"gorm.io/gorm"

	"github.com/hldang/stockpile/infra"
)

type Repository struct {
	ProductRepo      *ProductRepository
	ProductImageRepo *ProductImageRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		ProductRepo:      NewProductRepository(infra.Postgres.DB),
		ProductImageRepo: NewProductImageRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		ProductRepo:      NewProductRepository(tx),
		ProductImageRepo: NewProductImageRepository(tx),
	}
}
