package user

import "context"

// User is the owner of devices and the caller of administrative operations.
type User struct {
	ID   string
	Role string
}

// Repository defines lookups needed for authorization.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
