package executil

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Platform 决定可执行文件名和调用方式的宿主操作系统
type Platform struct {
	GOOS string
}

// HostPlatform 返回当前宿主平台
func HostPlatform() Platform {
	return Platform{GOOS: runtime.GOOS}
}

// IsWindows 是否为 Windows 平台
func (p Platform) IsWindows() bool {
	return p.GOOS == "windows"
}

// Executable 返回工具在该平台上的可执行文件名
// Windows 上 npm 和 Cloud SDK 安装的是 .cmd 包装脚本
func (p Platform) Executable(name string) string {
	if p.IsWindows() && filepath.Ext(name) == "" {
		return name + ".cmd"
	}
	return name
}

// Invocation 返回实际启动的程序和参数
// Windows 上的 .cmd/.bat 脚本需要经由 cmd /c 启动
func (p Platform) Invocation(name string, args []string) (string, []string) {
	if !p.IsWindows() {
		return name, args
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cmd", ".bat":
		return "cmd", append([]string{"/c", name}, args...)
	}
	return name, args
}
