package repository

import (
	"context"
	"fmt"

	"go-sales-crm/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository reads sales with their items and products. Write methods
// take the caller's transaction so that multi-row ledger changes commit or
// roll back together.
type SaleRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]model.Sale, error)
	FindByClient(ctx context.Context, clientID uint) ([]model.Sale, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)

	Create(tx *gorm.DB, sale *model.Sale) error
	CreateItem(tx *gorm.DB, item *model.SaleItem) error
	LockByID(tx *gorm.DB, id uint) (*model.Sale, error)
	Delete(tx *gorm.DB, id uint) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindByOwner(ctx context.Context, ownerID uint) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		Where("user_id = ?", ownerID).
		Order("date DESC, id DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByClient(ctx context.Context, clientID uint) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("client_id = ?", clientID).
		Order("date DESC, id DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Where("user_id = ?", ownerID).Count(&n).Error
	return n, err
}

// Create inserts only the sale row; items are written by CreateItem.
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit(clause.Associations).Create(sale).Error
}

func (r *saleRepo) CreateItem(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

// LockByID loads the sale row with SELECT ... FOR UPDATE. SQLite has no row
// locks and ignores the clause.
func (r *saleRepo) LockByID(tx *gorm.DB, id uint) (*model.Sale, error) {
	var sale model.Sale
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&sale, id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) Delete(tx *gorm.DB, id uint) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	if err := tx.Delete(&model.Sale{}, id).Error; err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}
