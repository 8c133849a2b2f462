package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence/file"
)

type stubGenerator struct {
	calls   int
	text    string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)

	if g.err != nil {
		return "", g.err
	}

	return g.text, nil
}

func failedExecutionServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/executions/exec-1":
			_, _ = w.Write([]byte(`{
				"id": "exec-1",
				"workflowId": "w1",
				"finished": true,
				"status": "error",
				"startedAt": "2025-06-01T10:00:00Z",
				"data": {
					"resultData": {
						"lastNodeExecuted": "HTTP Request",
						"runData": {
							"Webhook": [{"executionTime": 2}],
							"HTTP Request": [{"error": {"message": "connection refused"}}]
						}
					}
				}
			}`))
		case "/api/v1/workflows":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "w1", "name": "Invoice Flow"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	t.Cleanup(server.Close)

	return server
}

func TestService_Analyze_FreshAnalysisIsStored(t *testing.T) {
	t.Parallel()

	server := failedExecutionServer(t)
	instance := models.Instance{ID: "inst-1", Name: "Test", URL: server.URL, APIKey: "key"}

	store, err := file.NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	generator := &stubGenerator{text: "The HTTP Request node could not reach its target."}
	service := NewService(store, generator, slog.Default())

	result, err := service.Analyze(context.Background(), instance, "exec-1", false)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, generator.text, result.Analysis)
	assert.Equal(t, 1, generator.calls)

	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "Workflow: Invoice Flow")
	assert.Contains(t, generator.prompts[0], "Failed Node: HTTP Request")
	assert.Contains(t, generator.prompts[0], "connection refused")

	entry, err := store.AnalysisCache().Get(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, generator.text, entry.Analysis)
	assert.Equal(t, "inst-1", entry.InstanceID)
	assert.Equal(t, "connection refused", entry.ErrorMessage)
}

func TestService_Analyze_CacheHitSkipsModelAndRemote(t *testing.T) {
	t.Parallel()

	// No remote server at all: a cache hit must not touch the instance.
	instance := models.Instance{ID: "inst-1", Name: "Test", URL: "http://127.0.0.1:1", APIKey: "key"}

	store, err := file.NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.AnalysisCache().Put(context.Background(), &models.AnalysisEntry{
		ExecutionID: "exec-1",
		InstanceID:  "inst-1",
		Analysis:    "Stored diagnosis",
		CreatedAt:   createdAt,
	}))

	generator := &stubGenerator{text: "should not be called"}
	service := NewService(store, generator, slog.Default())

	result, err := service.Analyze(context.Background(), instance, "exec-1", false)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, "Stored diagnosis", result.Analysis)
	assert.Equal(t, createdAt, result.Timestamp)
	assert.Equal(t, 0, generator.calls)
}

func TestService_Analyze_ForceBypassesCache(t *testing.T) {
	t.Parallel()

	server := failedExecutionServer(t)
	instance := models.Instance{ID: "inst-1", Name: "Test", URL: server.URL, APIKey: "key"}

	store, err := file.NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	require.NoError(t, store.AnalysisCache().Put(context.Background(), &models.AnalysisEntry{
		ExecutionID: "exec-1",
		InstanceID:  "inst-1",
		Analysis:    "Old diagnosis",
		CreatedAt:   time.Now().UTC(),
	}))

	generator := &stubGenerator{text: "New diagnosis"}
	service := NewService(store, generator, slog.Default())

	result, err := service.Analyze(context.Background(), instance, "exec-1", true)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, "New diagnosis", result.Analysis)
	assert.Equal(t, 1, generator.calls)

	entry, err := store.AnalysisCache().Get(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "New diagnosis", entry.Analysis)
}

func TestService_Analyze_GeneratorErrorPropagates(t *testing.T) {
	t.Parallel()

	server := failedExecutionServer(t)
	instance := models.Instance{ID: "inst-1", Name: "Test", URL: server.URL, APIKey: "key"}

	store, err := file.NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	generator := &stubGenerator{err: ErrNotConfigured}
	service := NewService(store, generator, slog.Default())

	_, err = service.Analyze(context.Background(), instance, "exec-1", false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_Analyze_ExecutionFetchErrorPropagates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	instance := models.Instance{ID: "inst-1", Name: "Test", URL: server.URL, APIKey: "key"}

	store, err := file.NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	generator := &stubGenerator{text: "unused"}
	service := NewService(store, generator, slog.Default())

	_, err = service.Analyze(context.Background(), instance, "exec-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch execution detail")
	assert.Equal(t, 0, generator.calls)
}
