package executil

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformExecutable(t *testing.T) {
	assert.Equal(t, "gcloud", Platform{GOOS: "linux"}.Executable("gcloud"))
	assert.Equal(t, "gcloud", Platform{GOOS: "darwin"}.Executable("gcloud"))
	assert.Equal(t, "gcloud.cmd", Platform{GOOS: "windows"}.Executable("gcloud"))
	assert.Equal(t, "tsc.exe", Platform{GOOS: "windows"}.Executable("tsc.exe"))
}

func TestPlatformInvocation(t *testing.T) {
	name, args := Platform{GOOS: "linux"}.Invocation("gcloud", []string{"run", "deploy"})
	assert.Equal(t, "gcloud", name)
	assert.Equal(t, []string{"run", "deploy"}, args)

	name, args = Platform{GOOS: "windows"}.Invocation("gcloud.cmd", []string{"run"})
	assert.Equal(t, "cmd", name)
	assert.Equal(t, []string{"/c", "gcloud.cmd", "run"}, args)

	name, _ = Platform{GOOS: "windows"}.Invocation("node.exe", nil)
	assert.Equal(t, "node.exe", name)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunnerExitCodes(t *testing.T) {
	skipOnWindows(t)
	var out bytes.Buffer
	r := &ExecRunner{Platform: HostPlatform(), Stdout: &out, Stderr: &out}

	res, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hi"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hi\n", out.String())

	res, err = r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecRunnerDir(t *testing.T) {
	skipOnWindows(t)
	var out bytes.Buffer
	r := &ExecRunner{Platform: HostPlatform(), Stdout: &out}
	_, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "pwd"}, Dir: "/"})
	require.NoError(t, err)
	assert.Equal(t, "/\n", out.String())
}

func TestExecRunnerSpawnError(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), Command{Name: "polyship-no-such-tool"})
	var spawn *SpawnError
	require.True(t, errors.As(err, &spawn))
	assert.Equal(t, "polyship-no-such-tool", spawn.Name)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "gcloud run deploy", Command{Name: "gcloud", Args: []string{"run", "deploy"}}.String())
}
