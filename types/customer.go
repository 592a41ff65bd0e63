package types

// Customer is a billable party registered in the system.
// VATNumber is unique across customers.
type Customer struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Phone     string `json:"phone" db:"phone"`
	Email     string `json:"email" db:"email"`
	VATNumber string `json:"vatNumber" db:"vat_number"`
}
