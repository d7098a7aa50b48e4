package service

import (
	"context"
	"errors"
	"fmt"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/repository"
	"go-sales-crm/internal/ws"
	"go-sales-crm/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
)

type ProductInput struct {
	Name       string          `json:"name" validate:"required"`
	NetPrice   decimal.Decimal `json:"net_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, in *ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, in *ProductInput) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewProductService(pRepo repository.ProductRepository, db *gorm.DB, hub *ws.Hub) ProductService {
	return &productService{
		productRepo: pRepo,
		db:          db,
		wsHub:       hub,
	}
}

func validateProduct(in *ProductInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	if in.NetPrice.IsNegative() {
		return apperr.Validation("NetPrice", "must not be negative")
	}
	if in.TotalPrice.IsNegative() {
		return apperr.Validation("TotalPrice", "must not be negative")
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, in *ProductInput) (*model.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	product := &model.Product{Name: in.Name, NetPrice: in.NetPrice, TotalPrice: in.TotalPrice}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.wsHub.Publish(EventProductCreated, product)
	return product, nil
}

// UpdateProduct re-prices a product. Recorded sale lines keep their own
// price; only calendar estimates follow the new net price.
func (s *productService) UpdateProduct(ctx context.Context, id uint, in *ProductInput) (*model.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	var updated model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&updated, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product", id)
			}
			return err
		}

		updated.Name = in.Name
		updated.NetPrice = in.NetPrice
		updated.TotalPrice = in.TotalPrice
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(EventProductUpdated, &updated)
	return &updated, nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}
