package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/pipesched/pkg/mocks"
	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/persistence/file"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/dukex/pipesched/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func saveSchedules(t *testing.T, store persistence.Persistence) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Import")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, schedule.JobMarker), nil, 0o644))

	s := schedule.New("preprocess", schedule.WithLogger(quiet()))
	s.SetEmailAddress("ops@example.org")
	require.NoError(t, s.AddBooleanVariable("done", false))

	job, err := s.AddJobNode(dir, schedule.ModeNew)
	require.NoError(t, err)
	require.NoError(t, s.AddTimerNode("pause", 30))
	exit, err := s.AddExitNode()
	require.NoError(t, err)

	require.NoError(t, s.AddEdge(job, "pause"))
	require.NoError(t, s.AddFork("pause", "done", exit, job))
	require.NoError(t, s.SetStartNode(job))
	require.NoError(t, store.SaveSchedule(context.Background(), s))

	broken := schedule.New("broken", schedule.WithLogger(quiet()))
	_, err = broken.AddExitNode()
	require.NoError(t, err)
	require.NoError(t, broken.AddTimerNode("orphan", 1))
	require.NoError(t, store.SaveSchedule(context.Background(), broken))

	return job
}

func setupTestApp(t *testing.T, store persistence.Persistence) *fiber.App {
	t.Helper()

	return web.NewApp(web.NewAPIHandlers(store, quiet(), schedule.WithLogger(quiet())))
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestAPIHandlers_ListSchedules(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	app := setupTestApp(t, store)

	status, body := get(t, app, "/schedules")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"schedules": [], "total_count": 0}`, string(body))

	saveSchedules(t, store)

	status, body = get(t, app, "/schedules")
	require.Equal(t, http.StatusOK, status)

	var list web.ScheduleList
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, []string{"broken", "preprocess"}, list.Schedules)
	assert.Equal(t, 2, list.TotalCount)
}

func TestAPIHandlers_GetSchedule(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	job := saveSchedules(t, store)
	app := setupTestApp(t, store)

	status, body := get(t, app, "/schedules/preprocess")
	require.Equal(t, http.StatusOK, status)

	var view web.ScheduleView
	require.NoError(t, json.Unmarshal(body, &view))

	assert.Equal(t, "preprocess", view.Name)
	assert.Equal(t, "ops@example.org", view.Email)
	assert.Equal(t, job, view.StartNode)
	assert.Empty(t, view.CurrentNode)
	require.Len(t, view.Nodes, 3)
	assert.Equal(t, schedule.NodeJob, view.Nodes[0].Type)
	assert.Equal(t, schedule.ModeNew, view.Nodes[0].Mode)
	require.NotNil(t, view.Nodes[1].WaitSeconds)
	assert.InDelta(t, 30.0, *view.Nodes[1].WaitSeconds, 0)
	require.Len(t, view.Edges, 2)
	assert.True(t, view.Edges[1].Fork)
	assert.Equal(t, "done", view.Edges[1].Condition)
	assert.Equal(t, job, view.Edges[1].ToIfFalse)
	require.Len(t, view.Variables.Booleans, 1)
	assert.Equal(t, "done", view.Variables.Booleans[0].Name)
}

func TestAPIHandlers_GetSchedule_Errors(t *testing.T) {
	app := setupTestApp(t, file.NewPersistence(t.TempDir()))

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedType   string
	}{
		{"missing", "/schedules/missing", http.StatusNotFound, "schedule_not_found"},
		{"missing validation", "/schedules/missing/validation", http.StatusNotFound, "schedule_not_found"},
		{"bad name", "/schedules/a..b", http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, app, tt.path)
			assert.Equal(t, tt.expectedStatus, status)

			var problem map[string]any
			require.NoError(t, json.Unmarshal(body, &problem))
			assert.Equal(t, tt.expectedType, problem["type"])
		})
	}
}

func TestAPIHandlers_ValidateSchedule(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	saveSchedules(t, store)
	app := setupTestApp(t, store)

	status, body := get(t, app, "/schedules/preprocess/validation")
	require.Equal(t, http.StatusOK, status)

	var result web.ValidationResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)

	status, body = get(t, app, "/schedules/broken/validation")
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Problems)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	status, body := get(t, setupTestApp(t, file.NewPersistence(t.TempDir())), "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"healthy"`)

	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("disk full"))

	status, body = get(t, setupTestApp(t, store), "/health")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), "disk full")
	store.AssertExpectations(t)
}

func TestAPIHandlers_ListSchedules_StoreFailure(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("Schedules", mock.Anything).Return(nil, errors.New("connection refused"))

	status, body := get(t, setupTestApp(t, store), "/schedules")
	assert.Equal(t, http.StatusInternalServerError, status)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "internal_error", problem["type"])
}

func TestApp_Metrics(t *testing.T) {
	app := setupTestApp(t, file.NewPersistence(t.TempDir()))

	get(t, app, "/schedules")

	status, body := get(t, app, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "pipesched_api_http_requests_total")
}
