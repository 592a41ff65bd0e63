package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invoiceregistry/apiserver/types"
)

// InvoiceRepository handles persistence for invoices.
type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) GetAll(ctx context.Context) ([]types.Invoice, error) {
	const query = `
		SELECT id, number, date, status, description, total_amount, customer_id
		FROM invoices
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []types.Invoice
	for rows.Next() {
		var inv types.Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Date, &inv.Status, &inv.Description, &inv.TotalAmount, &inv.CustomerID); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (types.Invoice, error) {
	const query = `
		SELECT id, number, date, status, description, total_amount, customer_id
		FROM invoices
		WHERE id = $1`
	var inv types.Invoice
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.Number, &inv.Date, &inv.Status, &inv.Description, &inv.TotalAmount, &inv.CustomerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Invoice{}, ErrNotFound
		}
		return types.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM invoices WHERE number = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *InvoiceRepository) CountByCustomerID(ctx context.Context, customerID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM invoices WHERE customer_id = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, customerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
	const query = `
		INSERT INTO invoices (number, date, status, description, total_amount, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx, query,
		inv.Number, inv.Date, inv.Status, inv.Description, inv.TotalAmount, inv.CustomerID,
	).Scan(&inv.ID)
	if err != nil {
		return types.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
	const query = `
		UPDATE invoices
		SET number = $1,
			date = $2,
			status = $3,
			description = $4,
			total_amount = $5,
			customer_id = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx, query,
		inv.Number, inv.Date, inv.Status, inv.Description, inv.TotalAmount, inv.CustomerID, inv.ID,
	)
	if err != nil {
		return types.Invoice{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Invoice{}, err
	}
	if affected == 0 {
		return types.Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM invoices WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
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
