package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwerff/ExcelAiRate-sub000/internal/config"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func newTestWorkflow(id string) *api.Workflow {
	return &api.Workflow{
		ID:   api.ID(id),
		Name: "Stored Workflow",
		Steps: []*api.Step{{
			ID:        "step-a",
			Type:      api.StepTypeDataTransform,
			Operation: "identity",
		}},
		ErrorHandling: api.StrategyContinue,
	}
}

func newRedisStore(t *testing.T) (*store.RedisStore, func()) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	st := store.NewRedisStore(&config.StoreConfig{
		Addr:   server.Addr(),
		Prefix: "test",
	})
	return st, func() {
		_ = st.Close()
		server.Close()
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	wf := newTestWorkflow("wf-1")
	require.NoError(t, st.Save(ctx, wf))

	loaded, err := st.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, wf.ID, loaded.ID)
	assert.Equal(t, wf.Name, loaded.Name)
	assert.Len(t, loaded.Steps, 1)
	assert.Equal(t, api.StrategyContinue, loaded.ErrorHandling)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()

	_, err := st.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}

func TestRedisStoreList(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newTestWorkflow("wf-1")))
	require.NoError(t, st.Save(ctx, newTestWorkflow("wf-2")))

	workflows, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestRedisStoreSaveOverwrites(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newTestWorkflow("wf-1")))

	updated := newTestWorkflow("wf-1")
	updated.Name = "Updated"
	require.NoError(t, st.Save(ctx, updated))

	loaded, err := st.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", loaded.Name)

	workflows, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 1)
}

func TestRedisStoreDelete(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newTestWorkflow("wf-1")))
	require.NoError(t, st.Delete(ctx, "wf-1"))

	_, err := st.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)

	assert.ErrorIs(t,
		st.Delete(ctx, "wf-1"), store.ErrWorkflowNotFound)
}

func TestRedisStoreRejectsEmptyID(t *testing.T) {
	st, cleanup := newRedisStore(t)
	defer cleanup()

	err := st.Save(context.Background(), &api.Workflow{})
	assert.ErrorIs(t, err, store.ErrMissingID)
}

func TestMemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newTestWorkflow("wf-1")))

	loaded, err := st.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, api.ID("wf-1"), loaded.ID)

	workflows, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 1)

	require.NoError(t, st.Delete(ctx, "wf-1"))
	_, err = st.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}
