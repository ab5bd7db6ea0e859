package task

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// TaskService composes the access guard with the store. The caller identity is
// always passed in explicitly; the service never looks it up by itself.
type TaskService struct {
	store    Store
	guard    *AccessGuard
	eventBus mono.EventBus
	now      func() time.Time
}

// NewTaskService creates a new TaskService. eventBus may be nil, in which case
// no lifecycle events are published.
func NewTaskService(store Store, eventBus mono.EventBus) *TaskService {
	return &TaskService{
		store:    store,
		guard:    NewAccessGuard(store),
		eventBus: eventBus,
		now:      time.Now,
	}
}

// List returns every task owned by callerID, newest first.
func (s *TaskService) List(ctx context.Context, callerID string) ([]*domain.Task, error) {
	return s.store.FindByOwner(ctx, callerID)
}

// Create stores a new task owned by callerID.
func (s *TaskService) Create(ctx context.Context, callerID string, draft domain.Draft) (*domain.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if err := validateDueDate(draft.DueDate); err != nil {
		return nil, err
	}
	if err := validateDueTime(draft.DueTime); err != nil {
		return nil, err
	}
	period, err := normalizePeriod(draft.DueTimeAmPm)
	if err != nil {
		return nil, err
	}

	now := s.now()
	newTask := &domain.Task{
		ID:          uuid.New().String(),
		Owner:       callerID,
		Title:       title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		DueTime:     draft.DueTime,
		DueTimeAmPm: period,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(ctx, newTask); err != nil {
		return nil, err
	}

	s.publish("TaskCreated", newTask.ID, func(bus mono.EventBus) error {
		return events.TaskCreatedV1.Publish(bus, events.TaskCreatedEvent{
			TaskID:    newTask.ID,
			Owner:     newTask.Owner,
			Title:     newTask.Title,
			CreatedAt: newTask.CreatedAt,
		}, nil)
	})

	return newTask, nil
}

// Update applies the fields present in patch to a task owned by callerID.
func (s *TaskService) Update(ctx context.Context, callerID, taskID string, patch domain.Patch) (*domain.Task, error) {
	before, err := s.guard.Authorize(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	if err := normalizePatch(&patch); err != nil {
		return nil, err
	}

	columns := patch.Columns()
	fields := make([]string, 0, len(columns))
	for name := range columns {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	columns["updated_at"] = s.now()

	updated, err := s.store.UpdateFields(ctx, taskID, columns)
	if err != nil {
		return nil, err
	}

	s.publish("TaskUpdated", updated.ID, func(bus mono.EventBus) error {
		return events.TaskUpdatedV1.Publish(bus, events.TaskUpdatedEvent{
			TaskID:    updated.ID,
			Owner:     updated.Owner,
			Title:     updated.Title,
			Fields:    fields,
			UpdatedAt: updated.UpdatedAt,
		}, nil)
	})
	if updated.Completed && !before.Completed {
		s.publish("TaskCompleted", updated.ID, func(bus mono.EventBus) error {
			return events.TaskCompletedV1.Publish(bus, events.TaskCompletedEvent{
				TaskID:      updated.ID,
				Owner:       updated.Owner,
				Title:       updated.Title,
				CompletedAt: updated.UpdatedAt,
			}, nil)
		})
	}

	return updated, nil
}

// Delete permanently removes a task owned by callerID.
func (s *TaskService) Delete(ctx context.Context, callerID, taskID string) error {
	existing, err := s.guard.Authorize(ctx, callerID, taskID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, taskID); err != nil {
		return err
	}

	s.publish("TaskDeleted", taskID, func(bus mono.EventBus) error {
		return events.TaskDeletedV1.Publish(bus, events.TaskDeletedEvent{
			TaskID:    taskID,
			Owner:     existing.Owner,
			Title:     existing.Title,
			DeletedAt: s.now(),
		}, nil)
	})

	return nil
}

// publish is best-effort; failures are logged and never fail the operation.
func (s *TaskService) publish(name, taskID string, emit func(mono.EventBus) error) {
	if s.eventBus == nil {
		return
	}
	if err := emit(s.eventBus); err != nil {
		log.Printf("[task] Warning: failed to publish %s event for task %s: %v", name, taskID, err)
	}
}

func normalizePatch(patch *domain.Patch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		patch.Title = &title
	}
	if patch.DueDate != nil {
		if err := validateDueDate(*patch.DueDate); err != nil {
			return err
		}
	}
	if patch.DueTime != nil {
		if err := validateDueTime(*patch.DueTime); err != nil {
			return err
		}
	}
	if patch.DueTimeAmPm != nil {
		period, err := normalizePeriod(*patch.DueTimeAmPm)
		if err != nil {
			return err
		}
		value := string(period)
		patch.DueTimeAmPm = &value
	}
	return nil
}

func validateDueDate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return fmt.Errorf("%w: dueDate must be formatted as YYYY-MM-DD", domain.ErrValidation)
	}
	return nil
}

func validateDueTime(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(timeLayout, value); err != nil {
		return fmt.Errorf("%w: dueTime must be formatted as HH:MM", domain.ErrValidation)
	}
	return nil
}

func normalizePeriod(value string) (domain.Period, error) {
	switch domain.Period(strings.ToUpper(strings.TrimSpace(value))) {
	case "":
		return "", nil
	case domain.PeriodAM:
		return domain.PeriodAM, nil
	case domain.PeriodPM:
		return domain.PeriodPM, nil
	default:
		return "", fmt.Errorf("%w: dueTimeAmPm must be AM or PM", domain.ErrValidation)
	}
}
