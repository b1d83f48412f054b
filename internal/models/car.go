package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxImagesPerCar limits how many images a single listing may carry.
const MaxImagesPerCar = 10

// Car represents a car listing owned by exactly one user. Username is a
// snapshot of the owner's username taken at creation time; usernames are
// immutable, so it cannot drift from the referenced user.
type Car struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Username    string    `json:"username" db:"username"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Tags        []string  `json:"tags" db:"tags"`
	Images      []string  `json:"images" db:"images"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
