package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Name 命令行工具名称
const Name = "polyship"

// 打包与部署使用的固定值
const (
	// FrameworkPackage 运行时框架的包名
	FrameworkPackage = "@polyship/runtime"

	// NodeImage 容器描述文件使用的基础镜像
	NodeImage = "node:20-slim"

	// ListenPort 容器内应用监听的端口
	ListenPort = 8080

	// ServiceNameEnv 远程服务名称的环境变量
	ServiceNameEnv = "POLYSHIP_SERVICE_NAME"
)

var (
	version   = "" // 版本号，通过 -ldflags "-X" 注入
	gitCommit = "" // 构建时的 git 提交
)

// Version 返回版本号，未注入时返回 "(local)"，并去掉 v 前缀
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return "(local)"
	}
	return strings.TrimPrefix(strings.ToLower(v), "v")
}

// VersionString 返回 "<version> <commit> [<os>/<arch>]"
func VersionString() string {
	commit := strings.TrimSpace(gitCommit)
	if commit == "" {
		commit = "(undefined)"
	}
	return fmt.Sprintf("%s %s [%s/%s]", Version(), commit, runtime.GOOS, runtime.GOARCH)
}
