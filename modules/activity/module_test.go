package activity

import (
	"context"
	"testing"
	"time"

	"github.com/example/task-manager/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityModule_RecordsLifecycle(t *testing.T) {
	m := NewModule()
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t1", Owner: "alice", Title: "Buy milk", CreatedAt: at}, nil))
	require.NoError(t, m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{TaskID: "t1", Owner: "alice", Title: "Buy milk", Fields: []string{"completed"}, UpdatedAt: at.Add(time.Minute)}, nil))
	require.NoError(t, m.handleTaskCompleted(ctx, events.TaskCompletedEvent{TaskID: "t1", Owner: "alice", Title: "Buy milk", CompletedAt: at.Add(time.Minute)}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t1", Owner: "alice", Title: "Buy milk", DeletedAt: at.Add(2 * time.Minute)}, nil))
	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t2", Owner: "bob", Title: "Walk dog", CreatedAt: at}, nil))

	resp, err := m.handleRecentActivity(ctx, RecentActivityRequest{CallerID: "alice"}, nil)
	require.NoError(t, err)
	require.Equal(t, 4, resp.Total)

	kinds := make([]Kind, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		assert.Equal(t, "t1", e.TaskID)
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []Kind{KindDeleted, KindCompleted, KindUpdated, KindCreated}, kinds)
	assert.Equal(t, []string{"completed"}, resp.Entries[2].Fields)
	assert.Equal(t, "Created task 'Buy milk'", resp.Entries[3].Message)
}

func TestActivityModule_RecentActivityRequiresCaller(t *testing.T) {
	m := NewModule()

	_, err := m.handleRecentActivity(context.Background(), RecentActivityRequest{}, nil)
	assert.Error(t, err)
}

func TestActivityModule_Health(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.handleTaskCreated(context.Background(), events.TaskCreatedEvent{TaskID: "t1", Owner: "alice"}, nil))

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Details["owners"])
}
