package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/importer"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/internal/ws"
)

const EventImportCompleted = "import.completed"

// ImportResult summarises one spreadsheet import.
type ImportResult struct {
	ImportID     string   `json:"importId"`
	Message      string   `json:"message"`
	CreatedCount int      `json:"createdCount"`
	UpdatedCount int      `json:"updatedCount"`
	Errors       []string `json:"errors"`
}

type ImportService interface {
	Import(ctx context.Context, caller policy.Caller, filename string, r io.Reader) (*ImportResult, error)
}

type outcomeKind int

const (
	outcomeFailed outcomeKind = iota
	outcomeCreated
	outcomeUpdated
)

type rowOutcome struct {
	kind outcomeKind
	err  string
}

type importService struct {
	clientRepo repository.ClientRepository
	wsHub      *ws.Hub
	workers    int
}

func NewImportService(clientRepo repository.ClientRepository, hub *ws.Hub, workers int) ImportService {
	if workers < 1 {
		workers = 1
	}
	return &importService{clientRepo: clientRepo, wsHub: hub, workers: workers}
}

// Import upserts every row keyed by (email, owner). Rows run concurrently on
// a bounded pool; each goroutine writes only its own outcome slot and the
// counters are reduced after all rows finish. A failing row never stops the
// others.
func (s *importService) Import(ctx context.Context, caller policy.Caller, filename string, r io.Reader) (*ImportResult, error) {
	records, err := importer.Parse(filename, r)
	if err != nil {
		return nil, err
	}

	importID := uuid.NewString()
	log := slog.With("import_id", importID, "user_id", caller.UserID)
	log.InfoContext(ctx, "import started", "file", filename, "rows", len(records))

	outcomes := make([]rowOutcome, len(records))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range records {
		g.Go(func() error {
			outcomes[i] = s.importRow(ctx, log, caller, records[i])
			return nil
		})
	}
	_ = g.Wait()

	result := &ImportResult{ImportID: importID, Errors: []string{}}
	for _, o := range outcomes {
		switch o.kind {
		case outcomeCreated:
			result.CreatedCount++
		case outcomeUpdated:
			result.UpdatedCount++
		default:
			result.Errors = append(result.Errors, o.err)
		}
	}
	result.Message = fmt.Sprintf("Import completed. Clients created: %d. Clients updated: %d.",
		result.CreatedCount, result.UpdatedCount)

	log.InfoContext(ctx, "import finished",
		"created", result.CreatedCount, "updated", result.UpdatedCount, "failed", len(result.Errors))
	s.wsHub.PublishTo(caller.UserID, EventImportCompleted, map[string]any{
		"importId":     importID,
		"user_id":      caller.UserID,
		"createdCount": result.CreatedCount,
		"updatedCount": result.UpdatedCount,
		"errorCount":   len(result.Errors),
	})
	return result, nil
}

func (s *importService) importRow(ctx context.Context, log *slog.Logger, caller policy.Caller, rec importer.Record) rowOutcome {
	if missing := rec.Missing(); len(missing) > 0 {
		return rowOutcome{err: fmt.Sprintf("Row %d: missing %s", rec.Line, strings.Join(missing, ", "))}
	}

	name := rec.DisplayName()
	client := &model.Client{
		UserID:        caller.UserID,
		Name:          name,
		LegalName:     name,
		AliasName:     rec.AliasName,
		TaxID:         optional(rec.TaxID),
		Email:         rec.Email,
		Phone:         rec.Phone,
		Address:       rec.Address,
		PaymentTerms:  rec.PaymentTerms,
		PaymentStatus: model.PaymentPending,
		Company:       rec.Company,
		ClientCode:    rec.ClientCode,
		DispatchType:  rec.DispatchType,
		Channel:       rec.Channel,
		SubChannel:    rec.SubChannel,
		BusinessLine:  rec.BusinessLine,
		Contact:       rec.Contact,
		PriceList:     rec.PriceList,
		SalesRep:      rec.SalesRep,
		AddressType:   rec.AddressType,
		City:          rec.City,
		District:      rec.District,
	}

	_, created, err := s.clientRepo.Upsert(ctx, client)
	if err != nil {
		if apperr.IsExpected(err) {
			return rowOutcome{err: fmt.Sprintf("Row %d: %v", rec.Line, err)}
		}
		log.ErrorContext(ctx, "import row failed", "row", rec.Line, "err", err)
		return rowOutcome{err: fmt.Sprintf("Row %d: could not be saved", rec.Line)}
	}
	if created {
		return rowOutcome{kind: outcomeCreated}
	}
	return rowOutcome{kind: outcomeUpdated}
}
