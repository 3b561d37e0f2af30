package logger

import (
	"io"
	"os"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：DEBUG, INFO, WARN, ERROR
	Level LogLevel

	// EnableConsole 是否启用控制台输出
	EnableConsole bool

	// Console 控制台输出目标，为空时使用 os.Stderr（标准输出留给命令结果）
	Console io.Writer

	// EnableFile 是否启用文件输出
	EnableFile bool

	// LogDir 日志目录
	LogDir string

	// LogFile 日志文件名（如果为空，则使用默认格式：polyship-YYYY-MM-DD.log）
	LogFile string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Level:         INFO,
		EnableConsole: true,
		Console:       os.Stderr,
		EnableFile:    false,
		LogDir:        ".polyship/logs",
	}
}
