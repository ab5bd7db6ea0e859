package task

import (
	"context"
	"errors"
	"log"

	domain "github.com/example/task-manager/domain/task"
)

// servicePort implements TaskPort in-process on top of TaskService. The
// request-reply handlers of TaskModule delegate to it.
type servicePort struct {
	service *TaskService
}

var _ TaskPort = (*servicePort)(nil)

// NewServicePort returns a TaskPort that calls service directly.
func NewServicePort(service *TaskService) TaskPort {
	return &servicePort{service: service}
}

func (p *servicePort) ListTasks(ctx context.Context, callerID string) (*ListTasksResponse, error) {
	tasks, err := p.service.List(ctx, callerID)
	if err != nil {
		return nil, hideStoreFailure("list-tasks", err)
	}

	resp := &ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return resp, nil
}

func (p *servicePort) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	created, err := p.service.Create(ctx, req.CallerID, domain.Draft{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		DueTime:     req.DueTime,
		DueTimeAmPm: req.DueTimeAmPm,
	})
	if err != nil {
		return nil, hideStoreFailure("create-task", err)
	}
	resp := toTaskResponse(created)
	return &resp, nil
}

func (p *servicePort) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	updated, err := p.service.Update(ctx, req.CallerID, req.TaskID, req.toPatch())
	if err != nil {
		return nil, hideStoreFailure("update-task", err)
	}
	resp := toTaskResponse(updated)
	return &resp, nil
}

func (p *servicePort) DeleteTask(ctx context.Context, callerID, taskID string) error {
	return hideStoreFailure("delete-task", p.service.Delete(ctx, callerID, taskID))
}

// hideStoreFailure logs the cause of a store failure and replaces it with the
// bare sentinel so no storage detail reaches callers.
func hideStoreFailure(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		log.Printf("[task] %s failed: %v", op, err)
		return domain.ErrStoreUnavailable
	}
	return err
}
