package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/ledger"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/internal/ws"
	"go-sales-crm/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Websocket event types emitted by the ledger.
const (
	EventSaleCreated = "sale.created"
	EventSaleDeleted = "sale.deleted"
)

type SaleItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gt=0"`
}

type CreateSaleInput struct {
	ClientID    uint            `json:"client_id" validate:"required"`
	Date        *time.Time      `json:"date"`
	Description *string         `json:"description"`
	Items       []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

// SaleWithTotal is a sale plus its total at sale-time prices.
type SaleWithTotal struct {
	model.Sale
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

// CalendarEntry is one sale in the calendar view. Amount is recomputed from
// current product net prices and is not the recorded total.
type CalendarEntry struct {
	ID            uint            `json:"id"`
	Date          time.Time       `json:"date"`
	Description   *string         `json:"description"`
	ClientID      uint            `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDisplay string          `json:"amount_display"`
}

type SaleService interface {
	Get(ctx context.Context, caller policy.Caller, id uint) (*SaleWithTotal, error)
	ListForCalendar(ctx context.Context, caller policy.Caller) ([]CalendarEntry, error)
	Create(ctx context.Context, caller policy.Caller, in *CreateSaleInput) (*model.Sale, error)
	Delete(ctx context.Context, caller policy.Caller, id uint) error
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
	wsHub       *ws.Hub
	policy      policy.SalePolicy
	clients     policy.ClientPolicy
	now         func() time.Time
}

func NewSaleService(saleRepo repository.SaleRepository, productRepo repository.ProductRepository, db *gorm.DB, hub *ws.Hub) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		db:          db,
		wsHub:       hub,
		now:         time.Now,
	}
}

func (s *saleService) Get(ctx context.Context, caller policy.Caller, id uint) (*SaleWithTotal, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("load sale %d: %w", id, err)
	}
	if d := s.policy.Check(caller, sale); d != policy.Allow {
		return nil, d.Err("sale", id)
	}

	total := ledger.SaleTotal(sale.Items)
	return &SaleWithTotal{Sale: *sale, Total: total, TotalDisplay: ledger.Format(total)}, nil
}

func (s *saleService) ListForCalendar(ctx context.Context, caller policy.Caller) ([]CalendarEntry, error) {
	sales, err := s.saleRepo.FindByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	entries := make([]CalendarEntry, 0, len(sales))
	for _, sale := range sales {
		amount := ledger.CalendarGross(sale.Items)
		entry := CalendarEntry{
			ID:            sale.ID,
			Date:          sale.Date,
			Description:   sale.Description,
			ClientID:      sale.ClientID,
			Amount:        amount,
			AmountDisplay: ledger.Format(amount),
		}
		if sale.Client != nil {
			entry.ClientName = sale.Client.DisplayName()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Create records a sale and its lines in one transaction. Each line copies
// the product's current total price; a missing product or client rolls the
// whole sale back.
func (s *saleService) Create(ctx context.Context, caller policy.Caller, in *CreateSaleInput) (*model.Sale, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	sale := &model.Sale{
		Date:        s.now(),
		Description: in.Description,
		UserID:      caller.UserID,
		ClientID:    in.ClientID,
	}
	if in.Date != nil {
		sale.Date = *in.Date
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client model.Client
		if err := tx.First(&client, in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("client", in.ClientID)
			}
			return fmt.Errorf("load client: %w", err)
		}
		// Selling to another user's client is reported as absent.
		if s.clients.Check(caller, &client) != policy.Allow {
			return apperr.NotFound("client", in.ClientID)
		}
		sale.Client = &client

		if err := s.saleRepo.Create(tx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for _, line := range in.Items {
			product, err := s.productRepo.FindForSale(tx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("product", line.ProductID)
				}
				return fmt.Errorf("load product %d: %w", line.ProductID, err)
			}

			item := model.SaleItem{
				SaleID:          sale.ID,
				ProductID:       product.ID,
				Product:         product,
				Quantity:        line.Quantity,
				UnitPriceAtSale: product.TotalPrice,
			}
			if err := s.saleRepo.CreateItem(tx, &item); err != nil {
				return fmt.Errorf("insert sale item: %w", err)
			}
			sale.Items = append(sale.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := ledger.SaleTotal(sale.Items)
	slog.InfoContext(ctx, "sale created", "sale_id", sale.ID, "user_id", caller.UserID, "items", len(sale.Items), "total", total.String())
	s.wsHub.PublishTo(sale.UserID, EventSaleCreated, map[string]any{
		"id":        sale.ID,
		"user_id":   sale.UserID,
		"client_id": sale.ClientID,
		"total":     total,
	})
	return sale, nil
}

// Delete removes a sale and its lines. Admins may delete any sale.
func (s *saleService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	var ownerID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.saleRepo.LockByID(tx, id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lock sale %d: %w", id, err)
		}
		if d := s.policy.Check(caller, sale); d != policy.Allow {
			return d.Err("sale", id)
		}
		ownerID = sale.UserID
		return s.saleRepo.Delete(tx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "sale deleted", "sale_id", id, "user_id", caller.UserID, "admin", caller.IsAdmin())
	s.wsHub.PublishTo(ownerID, EventSaleDeleted, map[string]any{"id": id, "user_id": ownerID})
	return nil
}
