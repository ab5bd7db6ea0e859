package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityModule is a driven adapter: it subscribes to task lifecycle events
// and serves each user's recent activity.
type ActivityModule struct {
	feed *Feed
}

// Compile-time interface checks.
var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

// NewModule creates a new ActivityModule with a feed of DefaultCapacity entries per owner.
func NewModule() *ActivityModule {
	return &ActivityModule{
		feed: NewFeed(DefaultCapacity),
	}
}

// Name returns the module name.
func (m *ActivityModule) Name() string {
	return "activity"
}

// RegisterEventConsumers subscribes to every task lifecycle event.
func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TaskCreated, TaskUpdated, TaskCompleted, TaskDeleted")
	return nil
}

// RegisterServices registers the recent-activity request-reply service.
func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-activity", json.Unmarshal, json.Marshal, m.handleRecentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}
	log.Printf("[activity] Registered services: recent-activity")
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.feed.Record(event.Owner, Entry{
		Kind:    KindCreated,
		TaskID:  event.TaskID,
		Title:   event.Title,
		Message: fmt.Sprintf("Created task '%s'", event.Title),
		At:      event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.feed.Record(event.Owner, Entry{
		Kind:    KindUpdated,
		TaskID:  event.TaskID,
		Title:   event.Title,
		Message: fmt.Sprintf("Updated task '%s'", event.Title),
		Fields:  event.Fields,
		At:      event.UpdatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.feed.Record(event.Owner, Entry{
		Kind:    KindCompleted,
		TaskID:  event.TaskID,
		Title:   event.Title,
		Message: fmt.Sprintf("Completed task '%s'", event.Title),
		At:      event.CompletedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Task deleted: %s by user %s", event.TaskID, event.Owner)
	m.feed.Record(event.Owner, Entry{
		Kind:    KindDeleted,
		TaskID:  event.TaskID,
		Title:   event.Title,
		Message: fmt.Sprintf("Deleted task '%s'", event.Title),
		At:      event.DeletedAt,
	})
	return nil
}

func (m *ActivityModule) handleRecentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	if req.CallerID == "" {
		return RecentActivityResponse{}, fmt.Errorf("caller id is required")
	}
	entries := m.feed.Recent(req.CallerID, req.Limit)
	return RecentActivityResponse{Entries: entries, Total: len(entries)}, nil
}

// Start starts the module.
func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for task events")
	return nil
}

// Stop stops the module. Entries live in memory only and do not survive a restart.
func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}

// Health reports how many owners have entries in the feed.
func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"owners":   m.feed.Owners(),
			"capacity": m.feed.capacity,
		},
	}
}
