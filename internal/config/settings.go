package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// SettingsFileName 工作目录下的工具配置文件名
const SettingsFileName = ".polyship.ini"

// Settings 工具自身的配置（与项目构建配置分开）
type Settings struct {
	// 已加载的配置文件路径，未找到时为空
	Path string

	// 日志配置
	Log LogConfig

	// 部署行为配置
	Deploy DeploySettings
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// DeploySettings 部署行为配置
type DeploySettings struct {
	// 远程部署失败时 deploy 命令是否仍以 0 退出
	ContinueOnRemoteFailure bool
}

// DefaultSettings 返回默认配置
func DefaultSettings() *Settings {
	return &Settings{
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    false,
			LogDir:        ".polyship/logs",
		},
		Deploy: DeploySettings{
			ContinueOnRemoteFailure: true,
		},
	}
}

// SettingsPaths 返回按优先级排列的配置文件候选路径
func SettingsPaths(workDir string) []string {
	paths := []string{filepath.Join(workDir, SettingsFileName)}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".polyship", "config.ini"))
	}
	return paths
}

// FindSettingsFile 返回第一个存在的配置文件，都不存在时返回空字符串
func FindSettingsFile(workDir string) string {
	for _, path := range SettingsPaths(workDir) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadSettings 加载工具配置，未找到配置文件时使用默认值
func LoadSettings(workDir string) (*Settings, error) {
	settings := DefaultSettings()

	path := FindSettingsFile(workDir)
	if path == "" {
		return settings, nil
	}

	cfgFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件 %s 失败: %w", path, err)
	}
	settings.Path = path

	log := cfgFile.Section("log")
	if level := log.Key("level").String(); level != "" {
		settings.Log.Level = level
	}
	settings.Log.EnableConsole = log.Key("enable_console").MustBool(settings.Log.EnableConsole)
	settings.Log.EnableFile = log.Key("enable_file").MustBool(settings.Log.EnableFile)
	if logDir := log.Key("log_dir").String(); logDir != "" {
		settings.Log.LogDir = logDir
	}
	if logFile := log.Key("log_file").String(); logFile != "" {
		settings.Log.LogFile = logFile
	}

	deploy := cfgFile.Section("deploy")
	settings.Deploy.ContinueOnRemoteFailure = deploy.Key("continue_on_remote_failure").MustBool(settings.Deploy.ContinueOnRemoteFailure)

	return settings, nil
}
