// SPDX-License-Identifier: MIT

// Package tasks implements the task feature: the model, the repository
// contract and an in-memory implementation used until a persistent one
// lands.
package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no task exists for the given ID.
var ErrNotFound = errors.New("task not found")

// Task is a single unit of work owned by a user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// Repository is the storage contract for tasks. Update applies only the
// non-nil fields. Delete reports whether a task was removed.
type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, title, description string) (Task, error)
	ByID(ctx context.Context, id int64) (Task, error)
	All(ctx context.Context) ([]Task, error)
	ByUserID(ctx context.Context, userID uuid.UUID) ([]Task, error)
	Update(ctx context.Context, id int64, title, description *string) (Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error
}

// MemoryRepository keeps tasks in process memory. IDs are assigned
// sequentially starting at 1; DeleteAll resets the sequence.
type MemoryRepository struct {
	mu     sync.RWMutex
	tasks  []Task
	nextID int64
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// Create stores a new task and returns it with its assigned ID.
func (r *MemoryRepository) Create(_ context.Context, userID uuid.UUID, title, description string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := Task{
		ID:          r.nextID,
		UserID:      userID,
		Title:       title,
		Description: description,
	}
	r.tasks = append(r.tasks, task)
	r.nextID++
	return task, nil
}

// ByID returns the task with the given ID, or ErrNotFound.
func (r *MemoryRepository) ByID(_ context.Context, id int64) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, task := range r.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return Task{}, ErrNotFound
}

// All returns a copy of every stored task.
func (r *MemoryRepository) All(_ context.Context) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

// ByUserID returns every task owned by the given user.
func (r *MemoryRepository) ByUserID(_ context.Context, userID uuid.UUID) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0)
	for _, task := range r.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

// Update applies the non-nil fields to the task and returns the result.
func (r *MemoryRepository) Update(_ context.Context, id int64, title, description *string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID != id {
			continue
		}
		if title != nil {
			r.tasks[i].Title = *title
		}
		if description != nil {
			r.tasks[i].Description = *description
		}
		return r.tasks[i], nil
	}
	return Task{}, ErrNotFound
}

// Delete removes the task and reports whether it existed.
func (r *MemoryRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteAll removes every task and resets the ID sequence.
func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = nil
	r.nextID = 1
	return nil
}
