package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowgrid "github.com/bwerff/ExcelAiRate-sub000"
	"github.com/bwerff/ExcelAiRate-sub000/internal/assert/helpers"
	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/internal/server"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router     *gin.Engine
	dispatcher *helpers.MockDispatcher
	store      *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dispatcher := helpers.NewMockDispatcher()
	st := store.NewMemoryStore()
	eng, err := engine.New(&engine.Dependencies{
		Dispatcher: dispatcher,
		Store:      st,
	})
	require.NoError(t, err)

	return &testServer{
		router:     server.NewServer(eng, st).SetupRoutes(),
		dispatcher: dispatcher,
		store:      st,
	}
}

func (ts *testServer) request(
	t *testing.T, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return &res
}

func simpleWorkflow() *api.Workflow {
	return &api.Workflow{
		ID: "wf-1",
		Steps: []*api.Step{{
			ID:        "step-a",
			Type:      api.StepTypeDataTransform,
			Operation: "op-a",
		}},
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.HealthResponse](t, rec)
	assert.Equal(t, flowgrid.Name, res.Service)
	assert.Equal(t, "healthy", res.Status)
	assert.Zero(t, res.ActiveRuns)
}

func TestRunWorkflowEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatcher.SetResponse("op-a", api.Args{"value": "done"})

	rec := ts.request(t, http.MethodPost, "/run", api.RunWorkflowRequest{
		Workflow: simpleWorkflow(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.WorkflowResult](t, rec)
	assert.Equal(t, api.RunCompleted, res.Status)
	assert.True(t, res.Success)
	assert.Len(t, res.Steps, 1)
}

func TestRunWorkflowRequiresWorkflow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/run", api.RunWorkflowRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunInvalidWorkflowReturnsFailedResult(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/run", api.RunWorkflowRequest{
		Workflow: &api.Workflow{ID: "empty"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.WorkflowResult](t, rec)
	assert.Equal(t, api.RunFailed, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, api.ErrorKindValidation, res.Errors[0].Kind)
}

func TestRunStepEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatcher.SetResponse("op-a", api.Args{"value": 42})

	rec := ts.request(t, http.MethodPost, "/run/step", api.RunStepRequest{
		Step: &api.Step{
			ID:        "lone",
			Type:      api.StepTypeDataTransform,
			Operation: "op-a",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.WorkflowResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, api.ID("single-lone"), res.WorkflowID)
}

func TestRunStoredEndpoint(t *testing.T) {
	ts := newTestServer(t)

	save := ts.request(t, http.MethodPost, "/workflow", simpleWorkflow())
	require.Equal(t, http.StatusOK, save.Code)

	rec := ts.request(t, http.MethodPost, "/run/stored/wf-1",
		api.RunStoredRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.WorkflowResult](t, rec)
	assert.Equal(t, api.ID("wf-1"), res.WorkflowID)
}

func TestRunStoredMissingWorkflow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/run/stored/nope",
		api.RunStoredRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunBatchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/run/batch", api.RunBatchRequest{
		Workflow: simpleWorkflow(),
		Targets:  []api.BatchTarget{"r1", "r2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[api.BatchResponse](t, rec)
	assert.Equal(t, 2, res.Count)
	assert.Len(t, res.Results, 2)
}

func TestRunBatchRejectsAmbiguousRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/run/batch", api.RunBatchRequest{
		Targets: []api.BatchTarget{"r1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodPost, "/run/batch", api.RunBatchRequest{
		Workflow: simpleWorkflow(),
		Step:     simpleWorkflow().Steps[0],
		Targets:  []api.BatchTarget{"r1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAbortUnknownRunReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodDelete, "/run/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	res := decode[api.AbortResponse](t, rec)
	assert.False(t, res.Aborted)
	assert.Equal(t, api.RunID("ghost"), res.RunID)
}

func TestWorkflowCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/workflow", simpleWorkflow())
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[api.WorkflowSavedResponse](t, rec)
	assert.Equal(t, api.ID("wf-1"), saved.ID)

	rec = ts.request(t, http.MethodGet, "/workflow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.WorkflowsListResponse](t, rec)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Workflows[0].StepCount)

	rec = ts.request(t, http.MethodGet, "/workflow/wf-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wf := decode[api.Workflow](t, rec)
	assert.Equal(t, api.ID("wf-1"), wf.ID)

	rec = ts.request(t, http.MethodDelete, "/workflow/wf-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/workflow/wf-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveWorkflowRejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/workflow",
		&api.Workflow{ID: "no-steps"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodOptions, "/run", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*",
		rec.Header().Get("Access-Control-Allow-Origin"))
}
