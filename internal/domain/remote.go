package domain

import "regexp"

var (
	durationPattern = regexp.MustCompile(`^[0-9]+[smh]$`)
	memoryPattern   = regexp.MustCompile(`^[0-9]+(Mi|Gi)$`)
)

// RemoteDeployOptions 远程部署选项
// 未设置的可选项不会传给远程工具，由远程服务使用默认值
type RemoteDeployOptions struct {
	Name         string // 服务名称（必需）
	Project      string // 云项目 ID
	Region       string // 区域
	MinInstances *int   // 最小实例数
	MaxInstances *int   // 最大实例数
	Concurrency  *int   // 单实例并发请求数
	Timeout      string // 请求超时，如 300s、5m、1h
	CPU          string // CPU 数量
	Memory       string // 内存大小，如 512Mi、2Gi
}

// RemoteRemoveOptions 远程删除选项
type RemoteRemoveOptions struct {
	Name    string
	Project string
	Region  string
}

// Validate 校验带格式约束的选项，格式错误时立即失败
func (o *RemoteDeployOptions) Validate() error {
	if err := ValidateDuration("timeout", o.Timeout); err != nil {
		return err
	}
	return ValidateMemory("memory", o.Memory)
}

// ValidateDuration 校验 整数+单位(s/m/h) 格式，空值视为未设置
func ValidateDuration(flag, value string) error {
	if value == "" || durationPattern.MatchString(value) {
		return nil
	}
	return &ValidationError{Flag: flag, Value: value, Examples: []string{"300s", "5m", "1h"}}
}

// ValidateMemory 校验 整数+单位(Mi/Gi) 格式，空值视为未设置
func ValidateMemory(flag, value string) error {
	if value == "" || memoryPattern.MatchString(value) {
		return nil
	}
	return &ValidationError{Flag: flag, Value: value, Examples: []string{"512Mi", "2Gi"}}
}

// RemoteState 单次远程调用的状态
type RemoteState string

const (
	RemoteIdle      RemoteState = "idle"
	RemoteInvoking  RemoteState = "invoking"
	RemoteSucceeded RemoteState = "succeeded"
	RemoteFailed    RemoteState = "failed"
)

// RemoteOutcome 远程调用结果
type RemoteOutcome struct {
	State    RemoteState // 最终状态
	ExitCode int         // 子进程退出码
	Args     []string    // 传给远程工具的参数
}
