package file

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

func testInstance(id, name string, createdAt time.Time) *models.Instance {
	return &models.Instance{
		ID:        id,
		Name:      name,
		URL:       "https://" + id + ".example.com",
		APIKey:    "key-" + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestInstanceRepository_SaveAndGet(t *testing.T) {
	t.Parallel()

	repo := NewInstanceRepository(t.TempDir(), slog.Default())
	ctx := context.Background()

	instance := testInstance("inst-1", "Production", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, instance))

	got, err := repo.GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Production", got.Name)
	assert.Equal(t, instance.URL, got.URL)

	// The returned record is a copy; mutating it must not leak back.
	got.Name = "mutated"

	again, err := repo.GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Production", again.Name)
}

func TestInstanceRepository_SaveStampsTimestamps(t *testing.T) {
	t.Parallel()

	repo := NewInstanceRepository(t.TempDir(), slog.Default())
	ctx := context.Background()

	instance := &models.Instance{
		ID:     "inst-1",
		Name:   "Production",
		URL:    "https://n8n.example.com",
		APIKey: "k",
	}

	before := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, instance))

	got, err := repo.GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.Before(before))
	assert.False(t, got.UpdatedAt.Before(before))

	// An explicit CreatedAt survives a re-save; UpdatedAt is restamped.
	created := got.CreatedAt

	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, created, again.CreatedAt)
	assert.False(t, again.UpdatedAt.Before(got.UpdatedAt))
}

func TestInstanceRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewInstanceRepository(t.TempDir(), slog.Default())

	_, err := repo.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestInstanceRepository_ListOrderedByCreation(t *testing.T) {
	t.Parallel()

	repo := NewInstanceRepository(t.TempDir(), slog.Default())
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, testInstance("newer", "Newer", base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, testInstance("older", "Older", base)))

	instances, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "older", instances[0].ID)
	assert.Equal(t, "newer", instances[1].ID)
}

func TestInstanceRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := NewInstanceRepository(t.TempDir(), slog.Default())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testInstance("inst-1", "Production", time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "inst-1"))

	_, err := repo.GetByID(ctx, "inst-1")
	assert.True(t, persistence.IsInstanceNotFound(err))

	err = repo.Delete(ctx, "inst-1")
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestInstanceRepository_SurvivesReload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ctx := context.Background()

	repo := NewInstanceRepository(root, slog.Default())
	require.NoError(t, repo.Save(ctx, testInstance("inst-1", "Production", time.Now().UTC())))

	reloaded := NewInstanceRepository(root, slog.Default())

	got, err := reloaded.GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Production", got.Name)
}

func TestInstanceRepository_CorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, instancesFile), []byte("{broken"), 0600))

	repo := NewInstanceRepository(root, slog.Default())

	instances, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestInstanceRepository_NullFileAndNullElementsDegrade(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	raw := `[null, {"id": "inst-1", "name": "Production", "url": "https://n8n.example.com", "api_key": "k"}]`
	require.NoError(t, os.WriteFile(filepath.Join(root, instancesFile), []byte(raw), 0600))

	repo := NewInstanceRepository(root, slog.Default())
	ctx := context.Background()

	instances, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "inst-1", instances[0].ID)

	nullRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(nullRoot, instancesFile), []byte("null"), 0600))

	nullRepo := NewInstanceRepository(nullRoot, slog.Default())
	require.NoError(t, nullRepo.Save(ctx, testInstance("inst-2", "Staging", time.Now().UTC())))

	got, err := nullRepo.GetByID(ctx, "inst-2")
	require.NoError(t, err)
	assert.Equal(t, "Staging", got.Name)
}

func TestInstanceRepository_FileIsValidJSON(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	repo := NewInstanceRepository(root, slog.Default())

	require.NoError(t, repo.Save(context.Background(), testInstance("inst-1", "Production", time.Now().UTC())))

	data, err := os.ReadFile(filepath.Join(root, instancesFile))
	require.NoError(t, err)

	var stored []map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "inst-1", stored[0]["id"])
}
