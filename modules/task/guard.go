package task

import (
	"context"

	domain "github.com/example/task-manager/domain/task"
)

// AccessGuard decides whether a caller may act on a specific task.
type AccessGuard struct {
	store Store
}

// NewAccessGuard creates a guard backed by store.
func NewAccessGuard(store Store) *AccessGuard {
	return &AccessGuard{store: store}
}

// Authorize returns the task when callerID owns it.
//
// Existence is checked before ownership: an unknown id yields ErrNotFound and a
// task owned by someone else yields ErrForbidden. The two cases stay
// distinguishable to callers.
func (g *AccessGuard) Authorize(ctx context.Context, callerID, taskID string) (*domain.Task, error) {
	task, err := g.store.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(callerID) {
		return nil, domain.ErrForbidden
	}
	return task, nil
}
