package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invoiceregistry/apiserver/types"
)

// CustomerRepository handles persistence for customers.
type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetAll(ctx context.Context) ([]types.Customer, error) {
	const query = `
		SELECT id, name, phone, email, vat_number
		FROM customers
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []types.Customer
	for rows.Next() {
		var c types.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.VATNumber); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (types.Customer, error) {
	const query = `
		SELECT id, name, phone, email, vat_number
		FROM customers
		WHERE id = $1`
	var c types.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.VATNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Customer{}, ErrNotFound
		}
		return types.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c types.Customer) (types.Customer, error) {
	const query = `
		INSERT INTO customers (name, phone, email, vat_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.Name, c.Phone, c.Email, c.VATNumber).Scan(&c.ID); err != nil {
		return types.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c types.Customer) (types.Customer, error) {
	const query = `
		UPDATE customers
		SET name = $1,
			phone = $2,
			email = $3,
			vat_number = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, c.Name, c.Phone, c.Email, c.VATNumber, c.ID)
	if err != nil {
		return types.Customer{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Customer{}, err
	}
	if affected == 0 {
		return types.Customer{}, ErrNotFound
	}
	return c, nil
}

// Delete removes a customer. The invoices table holds a restricting
// foreign key, so a customer with invoices cannot be deleted; that case
// is reported as ErrReferencedByInvoices.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM customers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if foreignKeyViolation(err) {
			return ErrReferencedByInvoices
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
