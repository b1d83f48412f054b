package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"carspace-backend/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the query. Ownership
	// mismatches on update/delete surface as ErrNotFound as well, so callers
	// cannot distinguish foreign records from absent ones.
	ErrNotFound = errors.New("record not found")

	// ErrUsernameTaken is returned when creating a user with a duplicate username
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore persists user credentials
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CarPatch describes a partial update of a car listing. Nil fields are left
// untouched.
type CarPatch struct {
	Title       *string
	Description *string
	Tags        []string
	Images      []string
}

// CarStore persists car listings
type CarStore interface {
	Insert(ctx context.Context, car *models.Car) error
	ListAll(ctx context.Context) ([]models.Car, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)

	// UpdateOwned applies the patch only when a record matches both id and
	// ownerID, in a single atomic statement.
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch CarPatch) (*models.Car, error)

	// DeleteOwned removes the record matching both id and ownerID
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error
}
