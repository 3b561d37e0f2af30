package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigNotFound           = errors.New("未找到项目配置文件")
	ErrConfigParse              = errors.New("项目配置文件解析失败")
	ErrProviderEntryMissing     = errors.New("缺少提供方入口文件")
	ErrToolNotInstalled         = errors.New("工具未安装")
	ErrCompileFailed            = errors.New("编译失败")
	ErrCompileOutputMissing     = errors.New("编译产物缺失")
	ErrSourceArtifactMissing    = errors.New("源产物缺失")
	ErrCopyFailed               = errors.New("复制失败")
	ErrPackageDescriptorMissing = errors.New("项目根目录下没有 package.json")
	ErrManifestWriteFailed      = errors.New("写入部署清单失败")
	ErrServiceNameRequired      = errors.New("需要服务名称")
	ErrRemoteToolSpawnFailed    = errors.New("无法启动远程工具")
	ErrRemoteToolExitNonzero    = errors.New("远程工具返回非零退出码")
)

// ExitError 外部进程以非零状态退出
type ExitError struct {
	Tool string // 工具名称
	Code int    // 退出码，无法启动时为 -1
	Kind error  // 对应的错误类别
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v: %s 退出码 %d", e.Kind, e.Tool, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Kind
}

// ValidationError 用户输入格式错误，只输出简短提示，不打印堆栈
type ValidationError struct {
	Flag     string   // 出错的参数名
	Value    string   // 用户提供的值
	Examples []string // 合法示例
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("--%s 的值 %q 无效，示例: %s", e.Flag, e.Value, strings.Join(e.Examples, ", "))
}

// IsValidation 判断错误是否为输入校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
