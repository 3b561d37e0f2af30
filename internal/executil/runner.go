package executil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command 一次外部进程调用，子进程继承执行器的标准输入输出
type Command struct {
	Name string   // 工具名或可执行文件路径
	Args []string // 参数
	Dir  string   // 工作目录
}

// String 返回便于日志输出的命令行
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result 进程退出后的结果
type Result struct {
	ExitCode int // 退出码
}

// SpawnError 进程无法启动（例如不在 PATH 中），区别于非零退出
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("无法启动 %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Runner 外部进程执行接口
// 非零退出通过 Result.ExitCode 返回，只有无法启动时才返回 error
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner 基于 os/exec 的实现
type ExecRunner struct {
	Platform Platform
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// NewRunner 创建使用宿主平台和当前进程标准输入输出的执行器
func NewRunner() *ExecRunner {
	return &ExecRunner{
		Platform: HostPlatform(),
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Run 启动进程并等待其退出
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	name, args := r.Platform.Invocation(c.Name, c.Args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return &Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Result{ExitCode: exitErr.ExitCode()}, nil
	}
	return nil, &SpawnError{Name: c.Name, Err: err}
}
