package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTask struct {
	err      error
	payload  rebuildPayload
	executed bool
}

func (t *recordingTask) Name() string { return "recording" }

func (t *recordingTask) Handle(_ context.Context, p rebuildPayload) error {
	t.executed = true
	t.payload = p
	return t.err
}

func TestTaskRegistry(t *testing.T) {
	t.Parallel()

	registry := newTaskRegistry()
	assert.Empty(t, registry.names())

	registry.register("b", &taskWrapper[rebuildPayload, *recordingTask]{task: &recordingTask{}})
	registry.register("a", scheduledTaskExecutor(func(context.Context) error { return nil }))

	executor, ok := registry.get("a")
	assert.True(t, ok)
	assert.NotNil(t, executor)

	_, ok = registry.get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, registry.names())
}

func TestTaskWrapper_Execute(t *testing.T) {
	t.Parallel()

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		task := &recordingTask{}
		raw, err := json.Marshal(rebuildPayload{Reason: "manual"})
		require.NoError(t, err)

		err = (&taskWrapper[rebuildPayload, *recordingTask]{task: task}).Execute(context.Background(), raw)
		require.NoError(t, err)
		assert.True(t, task.executed)
		assert.Equal(t, "manual", task.payload.Reason)
	})

	t.Run("empty payload yields zero value", func(t *testing.T) {
		t.Parallel()

		task := &recordingTask{}
		err := (&taskWrapper[rebuildPayload, *recordingTask]{task: task}).Execute(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, task.executed)
		assert.Equal(t, rebuildPayload{}, task.payload)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()

		task := &recordingTask{}
		err := (&taskWrapper[rebuildPayload, *recordingTask]{task: task}).Execute(context.Background(), []byte("invalid json"))
		require.ErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, task.executed)
	})

	t.Run("task error is returned", func(t *testing.T) {
		t.Parallel()

		taskErr := errors.New("rebuild failed")
		task := &recordingTask{err: taskErr}
		err := (&taskWrapper[rebuildPayload, *recordingTask]{task: task}).Execute(context.Background(), nil)
		assert.ErrorIs(t, err, taskErr)
	})
}

func TestScheduledTaskExecutor(t *testing.T) {
	t.Parallel()

	called := false
	exec := scheduledTaskExecutor(func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, exec.Execute(context.Background(), []byte(`{"ignored":"data"}`)))
	assert.True(t, called)
}
