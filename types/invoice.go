package types

// Invoice is a registered invoice belonging to a customer.
// Number is unique; Date is an ISO date string (YYYY-MM-DD).
type Invoice struct {
	ID          int64   `json:"id" db:"id"`
	Number      string  `json:"number" db:"number"`
	Date        string  `json:"date" db:"date"`
	Status      string  `json:"status" db:"status"`
	Description string  `json:"description" db:"description"`
	TotalAmount float64 `json:"totalAmount" db:"total_amount"`
	CustomerID  int64   `json:"customerId" db:"customer_id"`
}
