package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lucksec/polyship/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deploy", "local")
	repo := NewManifestRepository()

	first := &domain.DeployManifest{Provider: "local", BuiltAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Artifact: "deploy/local/index.js", BuildID: "a"}
	second := &domain.DeployManifest{Provider: "local", BuiltAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Artifact: "deploy/local/index.mjs", BuildID: "b"}

	require.NoError(t, repo.Save(dir, first))
	require.NoError(t, repo.Save(dir, second))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ManifestFileName, entries[0].Name())

	got, err := repo.Load(dir)
	require.NoError(t, err)
	assert.True(t, second.BuiltAt.Equal(got.BuiltAt))
	assert.Equal(t, second.Artifact, got.Artifact)
	assert.Equal(t, "b", got.BuildID)
}

func TestManifestSaveFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewManifestRepository().Save(filepath.Join(blocker, "deploy"), &domain.DeployManifest{})
	assert.ErrorIs(t, err, domain.ErrManifestWriteFailed)
}

func TestManifestLoadMissing(t *testing.T) {
	_, err := NewManifestRepository().Load(t.TempDir())
	assert.Error(t, err)
}

func TestPackageLoad(t *testing.T) {
	dir := t.TempDir()
	repo := NewPackageRepository()

	_, err := repo.Load(dir)
	assert.ErrorIs(t, err, domain.ErrPackageDescriptorMissing)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"@acme/shop","version":"1.0.0","type":"module","dependencies":{"zod":"^3.0.0"}}`), 0644))
	pkg, err := repo.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "@acme/shop", pkg.Name)
	assert.True(t, pkg.IsModule())
	assert.Equal(t, "^3.0.0", pkg.Dependencies["zod"])

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{`), 0644))
	_, err = repo.Load(dir)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPackageDescriptorMissing)
}

func TestSavePruned(t *testing.T) {
	dir := t.TempDir()
	path, err := NewPackageRepository().SavePruned(dir, &domain.PrunedDescriptor{
		Name:         "shop",
		Version:      "1.0.0",
		Private:      true,
		Scripts:      map[string]string{"start": "node index.js"},
		Dependencies: map[string]string{"b": "1", "a": "2"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"private": true`)
	assert.Less(t, strings.Index(string(data), `"a"`), strings.Index(string(data), `"b"`))
}
