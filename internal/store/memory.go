package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"carspace-backend/internal/models"
)

// MemoryUserStore is an in-memory UserStore used in tests and local
// development without a database.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

// NewMemoryUserStore creates an empty MemoryUserStore
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
	}

	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

// MemoryCarStore is an in-memory CarStore used in tests. Insertion order is
// preserved for ListAll, matching the Postgres created_at ordering.
type MemoryCarStore struct {
	mu    sync.RWMutex
	cars  map[uuid.UUID]*models.Car
	order []uuid.UUID
}

// NewMemoryCarStore creates an empty MemoryCarStore
func NewMemoryCarStore() *MemoryCarStore {
	return &MemoryCarStore{cars: make(map[uuid.UUID]*models.Car)}
}

func cloneCar(c *models.Car) *models.Car {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Images = append([]string(nil), c.Images...)
	return &out
}

func (s *MemoryCarStore) Insert(ctx context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cars[car.ID] = cloneCar(car)
	s.order = append(s.order, car.ID)
	return nil
}

func (s *MemoryCarStore) ListAll(ctx context.Context) ([]models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cars := []models.Car{}
	for _, id := range s.order {
		if c, ok := s.cars[id]; ok {
			cars = append(cars, *cloneCar(c))
		}
	}
	return cars, nil
}

func (s *MemoryCarStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCar(c), nil
}

func (s *MemoryCarStore) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch CarPatch) (*models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cars[id]
	if !ok || c.UserID != ownerID {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Tags != nil {
		c.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.Images != nil {
		c.Images = append([]string(nil), patch.Images...)
	}
	c.UpdatedAt = time.Now()

	return cloneCar(c), nil
}

func (s *MemoryCarStore) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cars[id]
	if !ok || c.UserID != ownerID {
		return ErrNotFound
	}

	delete(s.cars, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
