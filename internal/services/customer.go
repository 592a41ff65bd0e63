package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/types"
	"github.com/rs/zerolog"
)

// ErrCustomerHasInvoices blocks deletion of a customer that is still
// referenced by invoices.
var ErrCustomerHasInvoices = errors.New("customer has existing invoices")

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	GetAll(ctx context.Context) ([]types.Customer, error)
	GetByID(ctx context.Context, id int64) (types.Customer, error)
	Create(ctx context.Context, c types.Customer) (types.Customer, error)
	Update(ctx context.Context, c types.Customer) (types.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerService encapsulates customer use-cases.
type CustomerService struct {
	customers CustomerRepository
	invoices  InvoiceRepository
	log       zerolog.Logger
}

func NewCustomerService(customers CustomerRepository, invoices InvoiceRepository, log zerolog.Logger) *CustomerService {
	return &CustomerService{customers: customers, invoices: invoices, log: log}
}

func (s *CustomerService) GetAll(ctx context.Context) ([]types.Customer, error) {
	return s.customers.GetAll(ctx)
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (types.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *CustomerService) Create(ctx context.Context, c types.Customer) (types.Customer, error) {
	created, err := s.customers.Create(ctx, c)
	if err != nil {
		return types.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	s.log.Info().Int64("id", created.ID).Msg("customer inserted")
	return created, nil
}

func (s *CustomerService) Update(ctx context.Context, c types.Customer) (types.Customer, error) {
	if _, err := s.customers.GetByID(ctx, c.ID); err != nil {
		return types.Customer{}, err
	}
	updated, err := s.customers.Update(ctx, c)
	if err != nil {
		return types.Customer{}, err
	}
	s.log.Info().Int64("id", updated.ID).Msg("customer updated")
	return updated, nil
}

// Delete removes a customer and returns the deleted record. A customer
// with invoices cannot be deleted.
func (s *CustomerService) Delete(ctx context.Context, id int64) (types.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return types.Customer{}, err
	}

	count, err := s.invoices.CountByCustomerID(ctx, id)
	if err != nil {
		return types.Customer{}, fmt.Errorf("count invoices: %w", err)
	}
	if count > 0 {
		s.log.Warn().Int64("id", id).Msg("customer delete blocked by existing invoices")
		return types.Customer{}, ErrCustomerHasInvoices
	}

	if err := s.customers.Delete(ctx, id); err != nil {
		// The count check above can race with a concurrent invoice
		// insert; the restricting FK is the final arbiter.
		if errors.Is(err, store.ErrReferencedByInvoices) {
			return types.Customer{}, ErrCustomerHasInvoices
		}
		return types.Customer{}, err
	}

	s.log.Info().Int64("id", id).Msg("customer deleted")
	return customer, nil
}
