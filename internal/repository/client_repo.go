package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPageSize is used when a page is requested without a size.
const DefaultPageSize = 15

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

type ClientRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Client, error)
	List(ctx context.Context, ownerID uint, query string) ([]model.Client, error)
	Paginate(ctx context.Context, ownerID uint, query string, page, pageSize int) (*Page[model.Client], error)
	Create(ctx context.Context, client *model.Client) error
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uint) error
	BulkDelete(ctx context.Context, ids []uint, ownerID uint) (int64, error)
	Upsert(ctx context.Context, client *model.Client) (*model.Client, bool, error)
}

type clientRepo struct {
	db *gorm.DB
}

func NewClientRepo(db *gorm.DB) ClientRepository {
	return &clientRepo{db}
}

func (r *clientRepo) FindByID(ctx context.Context, id uint) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// search builds the owner-scoped filter shared by List and Paginate.
func (r *clientRepo) search(ctx context.Context, ownerID uint, query string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Client{}).Where("user_id = ?", ownerID)
	if query != "" {
		like := "%" + likeEscaper.Replace(query) + "%"
		q = q.Where(
			r.db.Where(`name LIKE ? ESCAPE '\'`, like).
				Or(`legal_name LIKE ? ESCAPE '\'`, like).
				Or(`email LIKE ? ESCAPE '\'`, like).
				Or(`tax_id LIKE ? ESCAPE '\'`, like),
		)
	}
	return q
}

func (r *clientRepo) List(ctx context.Context, ownerID uint, query string) ([]model.Client, error) {
	var clients []model.Client
	err := r.search(ctx, ownerID, query).
		Order("legal_name ASC, name ASC").
		Find(&clients).Error
	return clients, err
}

func (r *clientRepo) Paginate(ctx context.Context, ownerID uint, query string, page, pageSize int) (*Page[model.Client], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	var total int64
	if err := r.search(ctx, ownerID, query).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	clients := []model.Client{}
	err := r.search(ctx, ownerID, query).
		Order("legal_name ASC, name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return &Page[model.Client]{
		Data:       clients,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (r *clientRepo) Create(ctx context.Context, client *model.Client) error {
	return apperr.FromStore(r.db.WithContext(ctx).Create(client).Error)
}

func (r *clientRepo) Update(ctx context.Context, client *model.Client) error {
	return apperr.FromStore(r.db.WithContext(ctx).Save(client).Error)
}

// Delete removes a client together with its sales and their items in one
// transaction.
func (r *clientRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSalesOf(tx, []uint{id}); err != nil {
			return err
		}
		res := tx.Delete(&model.Client{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete client: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("client", id)
		}
		return nil
	})
}

// BulkDelete removes the subset of ids owned by ownerID and reports how many
// clients were deleted. Ids owned by someone else or missing are ignored.
func (r *clientRepo) BulkDelete(ctx context.Context, ids []uint, ownerID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []uint
		if err := tx.Model(&model.Client{}).
			Where("id IN ? AND user_id = ?", ids, ownerID).
			Pluck("id", &owned).Error; err != nil {
			return fmt.Errorf("select owned clients: %w", err)
		}
		if len(owned) == 0 {
			return nil
		}

		if err := deleteSalesOf(tx, owned); err != nil {
			return err
		}
		res := tx.Where("id IN ?", owned).Delete(&model.Client{})
		if res.Error != nil {
			return fmt.Errorf("delete clients: %w", res.Error)
		}
		count = res.RowsAffected
		return nil
	})
	return count, err
}

func deleteSalesOf(tx *gorm.DB, clientIDs []uint) error {
	saleIDs := tx.Model(&model.Sale{}).Select("id").Where("client_id IN ?", clientIDs)
	if err := tx.Where("sale_id IN (?)", saleIDs).Delete(&model.SaleItem{}).Error; err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	if err := tx.Where("client_id IN ?", clientIDs).Delete(&model.Sale{}).Error; err != nil {
		return fmt.Errorf("delete sales: %w", err)
	}
	return nil
}

// Upsert inserts the client or, when (email, user_id) already exists,
// overwrites the importable columns. created is inferred from the reloaded
// row's timestamps: a fresh insert has CreatedAt equal to UpdatedAt. Two
// writes landing in the same clock tick would read as created.
func (r *clientRepo) Upsert(ctx context.Context, client *model.Client) (*model.Client, bool, error) {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(model.UpsertColumns),
	}).Create(client).Error
	if err != nil {
		return nil, false, apperr.FromStore(err)
	}

	var stored model.Client
	if err := db.Where("email = ? AND user_id = ?", client.Email, client.UserID).
		First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("reload client: %w", err)
	}
	return &stored, stored.CreatedAt.Equal(stored.UpdatedAt), nil
}
