package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/executil"
)

func intPtr(v int) *int { return &v }

func TestDeployArgsMinimal(t *testing.T) {
	args := DeployArgs("/work/deploy/cloudrun", domain.RemoteDeployOptions{Name: "shop"})
	assert.Equal(t, []string{
		"run", "deploy", "shop",
		"--source", "/work/deploy/cloudrun",
		"--port", "8080",
		"--allow-unauthenticated",
	}, args)
}

func TestDeployArgsFull(t *testing.T) {
	args := DeployArgs("/a", domain.RemoteDeployOptions{
		Name:         "shop",
		Project:      "acme",
		Region:       "europe-west1",
		MinInstances: intPtr(0),
		MaxInstances: intPtr(5),
		Concurrency:  intPtr(80),
		Timeout:      "300s",
		CPU:          "2",
		Memory:       "512Mi",
	})
	assert.Equal(t, []string{
		"run", "deploy", "shop",
		"--source", "/a",
		"--port", "8080",
		"--allow-unauthenticated",
		"--project", "acme",
		"--region", "europe-west1",
		"--min-instances", "0",
		"--max-instances", "5",
		"--concurrency", "80",
		"--timeout", "300s",
		"--cpu", "2",
		"--memory", "512Mi",
	}, args)
}

// 每个已设置的选项恰好出现一次，未设置的选项不出现
func TestDeployArgsEachOptionOnce(t *testing.T) {
	type knob struct {
		flag  string
		set   func(*domain.RemoteDeployOptions)
		value string
	}
	knobs := []knob{
		{"--project", func(o *domain.RemoteDeployOptions) { o.Project = "p" }, "p"},
		{"--region", func(o *domain.RemoteDeployOptions) { o.Region = "r" }, "r"},
		{"--min-instances", func(o *domain.RemoteDeployOptions) { o.MinInstances = intPtr(1) }, "1"},
		{"--max-instances", func(o *domain.RemoteDeployOptions) { o.MaxInstances = intPtr(2) }, "2"},
		{"--concurrency", func(o *domain.RemoteDeployOptions) { o.Concurrency = intPtr(3) }, "3"},
		{"--timeout", func(o *domain.RemoteDeployOptions) { o.Timeout = "5m" }, "5m"},
		{"--cpu", func(o *domain.RemoteDeployOptions) { o.CPU = "1" }, "1"},
		{"--memory", func(o *domain.RemoteDeployOptions) { o.Memory = "1Gi" }, "1Gi"},
	}

	for mask := 0; mask < 1<<len(knobs); mask++ {
		opts := domain.RemoteDeployOptions{Name: "svc"}
		for i, k := range knobs {
			if mask&(1<<i) != 0 {
				k.set(&opts)
			}
		}
		args := DeployArgs("/src", opts)

		for i, k := range knobs {
			count, value := 0, ""
			for j := 0; j < len(args); j++ {
				if args[j] == k.flag {
					count++
					value = args[j+1]
				}
			}
			if mask&(1<<i) != 0 {
				require.Equal(t, 1, count, "mask=%b flag=%s", mask, k.flag)
				require.Equal(t, k.value, value)
			} else {
				require.Zero(t, count, "mask=%b flag=%s", mask, k.flag)
			}
		}
	}
}

func TestRemoveArgs(t *testing.T) {
	assert.Equal(t, []string{"run", "services", "delete", "shop", "--quiet"},
		RemoveArgs(domain.RemoteRemoveOptions{Name: "shop"}))
	assert.Equal(t, []string{"run", "services", "delete", "shop", "--project", "acme", "--region", "us-central1", "--quiet"},
		RemoveArgs(domain.RemoteRemoveOptions{Name: "shop", Project: "acme", Region: "us-central1"}))
}

func TestCloudRunDeploySucceeded(t *testing.T) {
	runner := &fakeRunner{}
	outcome, err := NewCloudRunService(runner, linux).Deploy(context.Background(), "/src", domain.RemoteDeployOptions{Name: "shop"})
	require.NoError(t, err)
	assert.Equal(t, domain.RemoteSucceeded, outcome.State)
	assert.Equal(t, 0, outcome.ExitCode)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gcloud", calls[0].Name)
	assert.Equal(t, outcome.Args, calls[0].Args)
}

func TestCloudRunDeployFailures(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		wantKind error
		wantCode int
	}{
		{"nonzero exit", &fakeRunner{exitCode: 1}, domain.ErrRemoteToolExitNonzero, 1},
		{"spawn failure", &fakeRunner{err: errors.New("executable file not found")}, domain.ErrRemoteToolSpawnFailed, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := NewCloudRunService(tt.runner, linux).Deploy(context.Background(), "/src", domain.RemoteDeployOptions{Name: "shop"})
			require.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, domain.RemoteFailed, outcome.State)
			assert.Equal(t, tt.wantCode, outcome.ExitCode)

			var exitErr *domain.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.wantCode, exitErr.Code)
		})
	}
}

func TestCloudRunRejectsBeforeSpawn(t *testing.T) {
	runner := &fakeRunner{}
	service := NewCloudRunService(runner, linux)

	outcome, err := service.Deploy(context.Background(), "/src", domain.RemoteDeployOptions{})
	assert.ErrorIs(t, err, domain.ErrServiceNameRequired)
	assert.Equal(t, domain.RemoteIdle, outcome.State)

	_, err = service.Deploy(context.Background(), "/src", domain.RemoteDeployOptions{Name: "shop", Timeout: "5 minutes"})
	assert.True(t, domain.IsValidation(err))

	_, err = service.Deploy(context.Background(), "/src", domain.RemoteDeployOptions{Name: "shop", Memory: "512MB"})
	assert.True(t, domain.IsValidation(err))

	_, err = service.Remove(context.Background(), domain.RemoteRemoveOptions{})
	assert.ErrorIs(t, err, domain.ErrServiceNameRequired)

	assert.Empty(t, runner.Calls())
}

func TestCloudRunRemove(t *testing.T) {
	runner := &fakeRunner{exitCode: 2}
	outcome, err := NewCloudRunService(runner, linux).Remove(context.Background(), domain.RemoteRemoveOptions{Name: "shop", Region: "asia-east1"})
	require.ErrorIs(t, err, domain.ErrRemoteToolExitNonzero)
	assert.Equal(t, domain.RemoteFailed, outcome.State)
	assert.Equal(t, 2, outcome.ExitCode)
	assert.Equal(t, []string{"run", "services", "delete", "shop", "--region", "asia-east1", "--quiet"}, runner.Calls()[0].Args)
}

func TestCloudRunWindowsExecutable(t *testing.T) {
	runner := &fakeRunner{}
	_, err := NewCloudRunService(runner, executil.Platform{GOOS: "windows"}).Remove(context.Background(), domain.RemoteRemoveOptions{Name: "shop"})
	require.NoError(t, err)
	assert.Equal(t, "gcloud.cmd", runner.Calls()[0].Name)
}

func TestResolveServiceName(t *testing.T) {
	env := func(v string) func(string) string {
		return func(key string) string {
			if key == "POLYSHIP_SERVICE_NAME" {
				return v
			}
			return ""
		}
	}
	descriptor := &domain.PackageDescriptor{Name: "@acme/shop"}

	assert.Equal(t, "cli", ResolveServiceName("cli", env("envname"), descriptor))
	assert.Equal(t, "envname", ResolveServiceName("", env("envname"), descriptor))
	assert.Equal(t, "shop", ResolveServiceName("", env(""), descriptor))
	assert.Equal(t, "", ResolveServiceName("", env(""), nil))
	assert.Equal(t, "", ResolveServiceName(" ", nil, &domain.PackageDescriptor{}))
}

func TestStripScope(t *testing.T) {
	assert.Equal(t, "shop", StripScope("@acme/shop"))
	assert.Equal(t, "shop", StripScope("shop"))
	assert.Equal(t, "@broken", StripScope("@broken"))
}
