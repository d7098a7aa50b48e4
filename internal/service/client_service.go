package service

import (
	"context"
	"strings"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/ledger"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/pkg/validator"

	"github.com/shopspring/decimal"
)

// ClientInput is the writable part of a client.
type ClientInput struct {
	LegalName     string   `json:"legal_name" validate:"required"`
	AliasName     string   `json:"alias_name"`
	TaxID         string   `json:"tax_id"`
	Email         string   `json:"email" validate:"required"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude" validate:"required_with=Longitude"`
	Longitude     *float64 `json:"longitude" validate:"required_with=Latitude"`
	PaymentTerms  string   `json:"payment_terms"`
	PaymentStatus string   `json:"payment_status" validate:"omitempty,oneof=PENDING PAID OVERDUE"`

	Company      string `json:"company"`
	ClientCode   string `json:"client_code"`
	DispatchType string `json:"dispatch_type"`
	Channel      string `json:"channel"`
	SubChannel   string `json:"sub_channel"`
	BusinessLine string `json:"business_line"`
	Contact      string `json:"contact"`
	PriceList    string `json:"price_list"`
	SalesRep     string `json:"sales_rep"`
	AddressType  string `json:"address_type"`
	City         string `json:"city"`
	District     string `json:"district"`
}

// SearchParams selects between a full list and a page. A zero Page and
// PageSize mean unpaginated.
type SearchParams struct {
	Query    string
	Page     int
	PageSize int
}

func (p SearchParams) Paginated() bool {
	return p.Page > 0 || p.PageSize > 0
}

// SearchResult holds either the full list or one page.
type SearchResult struct {
	Clients []model.Client
	Page    *repository.Page[model.Client]
}

// SaleSummary is a sale with its sale-time total.
type SaleSummary struct {
	model.Sale
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

// ClientDetail is a client with its sales, newest first.
type ClientDetail struct {
	model.Client
	Sales []SaleSummary `json:"sales"`
}

type ClientService interface {
	Get(ctx context.Context, caller policy.Caller, id uint) (*model.Client, error)
	GetWithSales(ctx context.Context, caller policy.Caller, id uint) (*ClientDetail, error)
	Search(ctx context.Context, caller policy.Caller, params SearchParams) (*SearchResult, error)
	Create(ctx context.Context, caller policy.Caller, in *ClientInput) (*model.Client, error)
	Update(ctx context.Context, caller policy.Caller, id uint, in *ClientInput) (*model.Client, error)
	Delete(ctx context.Context, caller policy.Caller, id uint) error
	BulkDelete(ctx context.Context, caller policy.Caller, ids []uint) (int64, error)
}

type clientService struct {
	clientRepo repository.ClientRepository
	saleRepo   repository.SaleRepository
	policy     policy.ClientPolicy
}

func NewClientService(clientRepo repository.ClientRepository, saleRepo repository.SaleRepository) ClientService {
	return &clientService{clientRepo: clientRepo, saleRepo: saleRepo}
}

// Get loads a client the caller owns. Admins get no override here.
func (s *clientService) Get(ctx context.Context, caller policy.Caller, id uint) (*model.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if d := s.policy.Check(caller, client); d != policy.Allow {
		return nil, d.Err("client", id)
	}
	return client, nil
}

func (s *clientService) GetWithSales(ctx context.Context, caller policy.Caller, id uint) (*ClientDetail, error) {
	client, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	sales, err := s.saleRepo.FindByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	detail := &ClientDetail{Client: *client, Sales: make([]SaleSummary, 0, len(sales))}
	for _, sale := range sales {
		total := ledger.SaleTotal(sale.Items)
		detail.Sales = append(detail.Sales, SaleSummary{Sale: sale, Total: total, TotalDisplay: ledger.Format(total)})
	}
	return detail, nil
}

func (s *clientService) Search(ctx context.Context, caller policy.Caller, params SearchParams) (*SearchResult, error) {
	query := strings.TrimSpace(params.Query)
	if !params.Paginated() {
		clients, err := s.clientRepo.List(ctx, caller.UserID, query)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Clients: clients}, nil
	}

	page, err := s.clientRepo.Paginate(ctx, caller.UserID, query, params.Page, params.PageSize)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Page: page}, nil
}

func (s *clientService) Create(ctx context.Context, caller policy.Caller, in *ClientInput) (*model.Client, error) {
	if err := validateClient(in); err != nil {
		return nil, err
	}

	client := &model.Client{UserID: caller.UserID, PaymentStatus: model.PaymentPending}
	applyClientInput(client, in)

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Update(ctx context.Context, caller policy.Caller, id uint, in *ClientInput) (*model.Client, error) {
	if err := validateClient(in); err != nil {
		return nil, err
	}

	client, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	applyClientInput(client, in)
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, id)
}

func (s *clientService) BulkDelete(ctx context.Context, caller policy.Caller, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("ids", "must contain at least one id")
	}
	return s.clientRepo.BulkDelete(ctx, ids, caller.UserID)
}

func validateClient(in *ClientInput) error {
	in.LegalName = strings.TrimSpace(in.LegalName)
	in.Email = strings.TrimSpace(in.Email)
	return validator.Check(in)
}

// applyClientInput copies the input onto c, keeping the legacy Name in
// step with LegalName.
func applyClientInput(c *model.Client, in *ClientInput) {
	c.LegalName = in.LegalName
	c.Name = in.LegalName
	c.AliasName = in.AliasName
	c.TaxID = optional(in.TaxID)
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.Latitude = in.Latitude
	c.Longitude = in.Longitude
	c.PaymentTerms = in.PaymentTerms
	if in.PaymentStatus != "" {
		c.PaymentStatus = model.PaymentStatus(in.PaymentStatus)
	}
	c.Company = in.Company
	c.ClientCode = in.ClientCode
	c.DispatchType = in.DispatchType
	c.Channel = in.Channel
	c.SubChannel = in.SubChannel
	c.BusinessLine = in.BusinessLine
	c.Contact = in.Contact
	c.PriceList = in.PriceList
	c.SalesRep = in.SalesRep
	c.AddressType = in.AddressType
	c.City = in.City
	c.District = in.District
}

// optional maps blank text to NULL so the per-owner unique index on
// nullable columns ignores it.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
