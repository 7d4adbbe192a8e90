package archive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "gocloud.dev/blob/memblob"

	"github.com/bwerff/ExcelAiRate-sub000/internal/archive"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func newTestArchiver(t *testing.T) *archive.BlobArchiver {
	t.Helper()

	a, err := archive.NewBlobArchiver(
		context.Background(), "mem://", "runs/",
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
	})
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	a := newTestArchiver(t)
	ctx := context.Background()

	res := &api.WorkflowResult{
		RunID:      "run-1",
		WorkflowID: "wf-1",
		Status:     api.RunCompleted,
		Success:    true,
		Outputs:    api.Args{"step-a.value": "done"},
		Steps: []*api.StepResult{{
			StepID:  "step-a",
			Success: true,
		}},
	}
	require.NoError(t, a.Archive(ctx, res))

	fetched, err := a.Fetch(ctx, "wf-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.RunID, fetched.RunID)
	assert.Equal(t, api.RunCompleted, fetched.Status)
	assert.Equal(t, "done", fetched.Outputs["step-a.value"])
	assert.Len(t, fetched.Steps, 1)
}

func TestFetchMissing(t *testing.T) {
	a := newTestArchiver(t)

	_, err := a.Fetch(context.Background(), "wf-1", "nope")
	assert.ErrorIs(t, err, archive.ErrResultNotFound)
}

func TestArchiveFailedRunKeepsErrors(t *testing.T) {
	a := newTestArchiver(t)
	ctx := context.Background()

	res := &api.WorkflowResult{
		RunID:      "run-2",
		WorkflowID: "wf-1",
		Status:     api.RunFailed,
	}
	res.AddError("step-b", api.ErrorKindOperation, "dispatch failed")
	require.NoError(t, a.Archive(ctx, res))

	fetched, err := a.Fetch(ctx, "wf-1", "run-2")
	require.NoError(t, err)
	require.Len(t, fetched.Errors, 1)
	assert.Equal(t, api.ErrorKindOperation, fetched.Errors[0].Kind)
}

func TestOpenBucketFailure(t *testing.T) {
	_, err := archive.NewBlobArchiver(
		context.Background(), "bogus://nowhere", "",
	)
	assert.Error(t, err)
}
