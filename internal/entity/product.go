package domain

// Product is owned by the catalog; this core reads it and mutates only its
// stock, under a row lock, during order placement.
type Product struct {
	ID           int64
	Name         string
	PriceInCents int64
	Stock        int64
	IsActive     bool
}

// User is a read-only collaborator: profile address fallback and billing data
// for the payment gateway.
type User struct {
	ID      int64
	Name    string
	Email   string
	Phone   string
	Address string
}
