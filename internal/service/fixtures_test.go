package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucksec/polyship/internal/executil"
)

var linux = executil.Platform{GOOS: "linux"}

// fakeRunner 记录调用，不启动真实进程
type fakeRunner struct {
	mu       sync.Mutex
	calls    []executil.Command
	exitCode int
	err      error
	onRun    func(cmd executil.Command)
}

func (f *fakeRunner) Run(ctx context.Context, cmd executil.Command) (*executil.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.onRun != nil {
		f.onRun(cmd)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &executil.Result{ExitCode: f.exitCode}, nil
}

func (f *fakeRunner) Calls() []executil.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executil.Command(nil), f.calls...)
}

// emitting 返回模拟 tsc 的回调：在 --outDir 下写入 rel 文件
func emitting(t *testing.T, files map[string]string) func(cmd executil.Command) {
	return func(cmd executil.Command) {
		outDir := argAfter(cmd.Args, "--outDir")
		for rel, content := range files {
			writeFile(t, outDir, rel, content)
		}
	}
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// newProject 创建一个带配置、入口、tsconfig 和 tsc 占位文件的项目
func newProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "polyship.config.json", config)
	writeFile(t, dir, "src/index.ts", "export {};\n")
	writeFile(t, dir, "tsconfig.json", `{"compilerOptions":{"target":"es2020"}}`)
	writeFile(t, dir, "node_modules/.bin/tsc", "#!/bin/sh\n")
	return dir
}

// withFramework 在项目的 node_modules 中放入运行时框架
func withFramework(t *testing.T, dir string) {
	t.Helper()
	base := "node_modules/@polyship/runtime/"
	writeFile(t, dir, base+"package.json", `{"name":"@polyship/runtime","version":"0.3.0","main":"dist/index.js"}`)
	writeFile(t, dir, base+"dist/index.js", "module.exports = {};\n")
	writeFile(t, dir, base+"node_modules/dep/index.js", "module.exports = 1;\n")
}

const projectConfig = `{
  "name": "shop",
  "defaultProvider": "local",
  "providers": {
    "local": {"entry": "src/index.ts"},
    "cloudrun": {"entry": "src/index.ts"},
    "kubernetes": {"entry": "src/index.ts"},
    "lambda": {"entry": "src/index.ts"}
  }
}`

const projectPackage = `{
  "name": "@acme/shop",
  "version": "1.2.0",
  "dependencies": {"@polyship/runtime": "^0.3.0", "zod": "^3.0.0"},
  "devDependencies": {"typescript": "^5.4.0"}
}`
