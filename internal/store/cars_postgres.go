package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carspace-backend/internal/models"
)

// PostgresCarStore implements CarStore on top of a pgx connection pool.
// Tags and images are stored as text[] columns, so element order and
// duplicates survive the round trip.
type PostgresCarStore struct {
	db *pgxpool.Pool
}

// NewPostgresCarStore creates a new PostgresCarStore instance
func NewPostgresCarStore(db *pgxpool.Pool) *PostgresCarStore {
	return &PostgresCarStore{db: db}
}

const carColumns = `id, user_id, username, title, description, tags, images, created_at, updated_at`

func scanCar(row pgx.Row) (*models.Car, error) {
	var car models.Car
	err := row.Scan(&car.ID, &car.UserID, &car.Username, &car.Title, &car.Description,
		&car.Tags, &car.Images, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (s *PostgresCarStore) Insert(ctx context.Context, car *models.Car) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO cars (id, user_id, username, title, description, tags, images, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		car.ID, car.UserID, car.Username, car.Title, car.Description,
		car.Tags, car.Images, car.CreatedAt, car.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert car: %w", err)
	}

	return nil
}

func (s *PostgresCarStore) ListAll(ctx context.Context) ([]models.Car, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+carColumns+` FROM cars ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select cars: %w", err)
	}
	defer rows.Close()

	cars := []models.Car{}
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		cars = append(cars, *car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select cars: %w", err)
	}

	return cars, nil
}

func (s *PostgresCarStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	car, err := scanCar(s.db.QueryRow(ctx,
		`SELECT `+carColumns+` FROM cars WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select car by id: %w", err)
	}
	return car, nil
}

func (s *PostgresCarStore) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch CarPatch) (*models.Car, error) {
	// Compound id AND user_id predicate: ownership is checked and the update
	// applied in one atomic statement, so there is no check-then-act window.
	car, err := scanCar(s.db.QueryRow(ctx,
		`UPDATE cars SET
			title = COALESCE($3::text, title),
			description = COALESCE($4::text, description),
			tags = COALESCE($5::text[], tags),
			images = COALESCE($6::text[], images),
			updated_at = $7
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+carColumns,
		id, ownerID, patch.Title, patch.Description, patch.Tags, patch.Images, time.Now()))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update car: %w", err)
	}

	return car, nil
}

func (s *PostgresCarStore) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM cars WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
