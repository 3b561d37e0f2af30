package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucksec/polyship/internal/domain"
)

func TestSelectProvider(t *testing.T) {
	withProviders := &domain.ProjectConfig{
		Providers:     map[string]domain.ProviderConfig{"cloudrun": {}, "local": {}},
		ProviderOrder: []string{"cloudrun", "local"},
	}

	tests := []struct {
		name string
		cfg  *domain.ProjectConfig
		flag string
		want string
	}{
		{"flag wins", &domain.ProjectConfig{DefaultProvider: "local"}, "cloudrun", "cloudrun"},
		{"default provider", &domain.ProjectConfig{DefaultProvider: "kubernetes"}, "", "kubernetes"},
		{"first declared", withProviders, "", "cloudrun"},
		{"fallback local", &domain.ProjectConfig{}, "", "local"},
		{"nil config", nil, "", "local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectProvider(tt.cfg, tt.flag))
		})
	}
}

func TestSelectEntry(t *testing.T) {
	cfg := &domain.ProjectConfig{
		DefaultProvider: "local",
		Providers: map[string]domain.ProviderConfig{
			"local":    {Entry: "src/local.ts"},
			"cloudrun": {Entry: "src/cloudrun.ts"},
			"lambda":   {},
		},
	}

	assert.Equal(t, "src/cli.ts", SelectEntry(cfg, "cloudrun", "src/cli.ts"))
	assert.Equal(t, "src/cloudrun.ts", SelectEntry(cfg, "cloudrun", ""))
	assert.Equal(t, "src/local.ts", SelectEntry(cfg, "lambda", ""))
	assert.Equal(t, DefaultEntry, SelectEntry(&domain.ProjectConfig{}, "local", ""))
}

func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := &domain.ProjectConfig{
		Providers:     map[string]domain.ProviderConfig{"local": {Entry: "src/main.ts"}},
		ProviderOrder: []string{"local"},
	}

	plan, err := NewResolverService().Resolve(context.Background(), dir, cfg, BuildOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "local", plan.Provider)
	assert.Equal(t, filepath.Join(dir, "src", "main.ts"), plan.EntryPath)
	assert.Equal(t, filepath.Join(dir, "dist"), plan.OutDir)
	assert.Equal(t, filepath.Join(dir, "tsconfig.json"), plan.TsconfigPath)
	assert.Equal(t, filepath.Join(dir, "deploy", "local"), plan.ArtifactDir)
}

func TestResolveOverridesAndBuildConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &domain.ProjectConfig{
		DefaultProvider: "local",
		Providers:       map[string]domain.ProviderConfig{"local": {}},
		ProviderOrder:   []string{"local"},
		Dev:             domain.DevConfig{Tsconfig: "tsconfig.dev.json"},
		Build:           domain.BuildConfig{OutDir: "build", TsconfigPath: "tsconfig.build.json"},
		Deploy:          &domain.DeployConfig{ArtifactDir: ".out"},
	}

	plan, err := NewResolverService().Resolve(context.Background(), dir, cfg, BuildOverrides{
		Provider: "cloudrun",
		OutDir:   "out",
	})
	require.NoError(t, err)
	assert.Equal(t, "cloudrun", plan.Provider)
	assert.Equal(t, filepath.Join(dir, "out"), plan.OutDir)
	assert.Equal(t, filepath.Join(dir, "tsconfig.build.json"), plan.TsconfigPath)
	assert.Equal(t, filepath.Join(dir, ".out", "cloudrun"), plan.ArtifactDir)

	cfg.Build.TsconfigPath = ""
	plan, err = NewResolverService().Resolve(context.Background(), dir, cfg, BuildOverrides{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tsconfig.dev.json"), plan.TsconfigPath)
	assert.Equal(t, filepath.Join(dir, "build"), plan.OutDir)
}

func TestResolveWithoutProviders(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolverService()

	_, err := resolver.Resolve(context.Background(), dir, &domain.ProjectConfig{}, BuildOverrides{})
	assert.ErrorIs(t, err, domain.ErrProviderEntryMissing)

	plan, err := resolver.Resolve(context.Background(), dir, &domain.ProjectConfig{}, BuildOverrides{Entry: "app.ts"})
	require.NoError(t, err)
	assert.Equal(t, "local", plan.Provider)
	assert.Equal(t, filepath.Join(dir, "app.ts"), plan.EntryPath)
}

func TestLoadProjectConfig(t *testing.T) {
	dir := newProject(t, projectConfig)
	cfg, err := NewResolverService().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Name)
	assert.Equal(t, []string{"local", "cloudrun", "kubernetes", "lambda"}, cfg.ProviderOrder)

	_, err = NewResolverService().Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}
