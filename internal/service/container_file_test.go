package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderContainerFile(t *testing.T) {
	spec := DefaultContainerSpec("index.js")
	spec.Descriptor = "package.json"
	spec.Archive = "polyship-runtime-0.3.0.tgz"

	want := `FROM node:20-slim
WORKDIR /app

COPY package.json polyship-runtime-0.3.0.tgz ./
RUN npm install --omit=dev

COPY . ./
ENV NODE_ENV=production
ENV PORT=8080
EXPOSE 8080
CMD ["node","index.js"]
`
	assert.Equal(t, want, RenderContainerFile(spec))
}

func TestRenderContainerFileWithoutDependencies(t *testing.T) {
	content := RenderContainerFile(DefaultContainerSpec("index.mjs"))
	assert.NotContains(t, content, "npm install")

	entry, err := ContainerEntry(content)
	require.NoError(t, err)
	assert.Equal(t, "index.mjs", entry)
}

func TestContainerFileRoundTrip(t *testing.T) {
	for _, entry := range []string{"index.js", "index.mjs", "index.cjs"} {
		content := RenderContainerFile(DefaultContainerSpec(entry))

		got, err := ContainerEntry(content)
		require.NoError(t, err)
		assert.Equal(t, entry, got)

		port, err := ContainerPort(content)
		require.NoError(t, err)
		assert.Equal(t, 8080, port)
		assert.Equal(t, 1, strings.Count(content, "\nCMD "))
	}
}

func TestContainerEntryErrors(t *testing.T) {
	_, err := ContainerEntry("FROM node:20-slim\n")
	assert.Error(t, err)

	_, err = ContainerEntry("CMD node index.js\n")
	assert.Error(t, err)

	_, err = ContainerEntry(`CMD ["npm","start"]`)
	assert.Error(t, err)

	_, err = ContainerPort("FROM node:20-slim\n")
	assert.Error(t, err)
}

func TestRenderIgnoreFile(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(RenderIgnoreFile()), "\n")
	assert.Equal(t, []string{"Dockerfile", ".dockerignore", "node_modules", "npm-debug.log"}, lines)
}

func TestProviderRegistry(t *testing.T) {
	registry := DefaultProviderRegistry()
	assert.Equal(t, []string{"cloudrun", "kubernetes", "local"}, registry.Names())

	cloudrun := registry.Lookup("cloudrun")
	assert.Equal(t, PackageContainer, cloudrun.Packaging)
	assert.True(t, cloudrun.Remote)
	assert.True(t, cloudrun.TransientFramework)

	kubernetes := registry.Lookup("kubernetes")
	assert.Equal(t, PackageContainer, kubernetes.Packaging)
	assert.False(t, kubernetes.Remote)
	assert.False(t, kubernetes.TransientFramework)

	other := registry.Lookup("lambda")
	assert.False(t, registry.Registered("lambda"))
	assert.Equal(t, "lambda", other.Name)
	assert.Equal(t, PackagePlain, other.Packaging)
	assert.False(t, other.Remote)

	registry.Register(ProviderSpec{Name: "lambda", Packaging: PackageContainer})
	assert.True(t, registry.Registered("lambda"))
	assert.Equal(t, PackageContainer, registry.Lookup("lambda").Packaging)
}
