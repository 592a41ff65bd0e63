package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/types"
	"github.com/rs/zerolog"
)

// Invoice failure kinds distinguished by the transport layer.
var (
	ErrInvoiceNumberTaken = errors.New("invoice number is already in use")
	ErrCustomerNotFound   = errors.New("customer not found")
)

// InvoiceRepository defines persistence operations for invoices.
type InvoiceRepository interface {
	GetAll(ctx context.Context) ([]types.Invoice, error)
	GetByID(ctx context.Context, id int64) (types.Invoice, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	CountByCustomerID(ctx context.Context, customerID int64) (int64, error)
	Create(ctx context.Context, inv types.Invoice) (types.Invoice, error)
	Update(ctx context.Context, inv types.Invoice) (types.Invoice, error)
	Delete(ctx context.Context, id int64) error
}

// InvoiceService encapsulates invoice use-cases. Customer lookups are
// needed to validate the owning association on writes.
type InvoiceService struct {
	invoices  InvoiceRepository
	customers CustomerRepository
	log       zerolog.Logger
}

func NewInvoiceService(invoices InvoiceRepository, customers CustomerRepository, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{invoices: invoices, customers: customers, log: log}
}

func (s *InvoiceService) GetAll(ctx context.Context) ([]types.Invoice, error) {
	return s.invoices.GetAll(ctx)
}

func (s *InvoiceService) GetByID(ctx context.Context, id int64) (types.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// Create registers a new invoice. The number must be unused and the
// owning customer must exist.
func (s *InvoiceService) Create(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
	taken, err := s.invoices.ExistsByNumber(ctx, inv.Number)
	if err != nil {
		return types.Invoice{}, fmt.Errorf("check invoice number: %w", err)
	}
	if taken {
		return types.Invoice{}, ErrInvoiceNumberTaken
	}

	if _, err := s.customers.GetByID(ctx, inv.CustomerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Invoice{}, ErrCustomerNotFound
		}
		return types.Invoice{}, err
	}

	created, err := s.invoices.Create(ctx, inv)
	if err != nil {
		return types.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	s.log.Info().Int64("id", created.ID).Str("number", created.Number).Msg("invoice inserted")
	return created, nil
}

func (s *InvoiceService) Update(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
	if _, err := s.invoices.GetByID(ctx, inv.ID); err != nil {
		return types.Invoice{}, err
	}

	if _, err := s.customers.GetByID(ctx, inv.CustomerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Invoice{}, ErrCustomerNotFound
		}
		return types.Invoice{}, err
	}

	updated, err := s.invoices.Update(ctx, inv)
	if err != nil {
		return types.Invoice{}, err
	}
	s.log.Info().Int64("id", updated.ID).Msg("invoice updated")
	return updated, nil
}

// Delete removes an invoice and returns the deleted record.
func (s *InvoiceService) Delete(ctx context.Context, id int64) (types.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return types.Invoice{}, err
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return types.Invoice{}, err
	}
	s.log.Info().Int64("id", id).Msg("invoice deleted")
	return invoice, nil
}
