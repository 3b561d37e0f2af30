package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucksec/polyship/internal"
	"github.com/lucksec/polyship/internal/config"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/executil"
	"github.com/lucksec/polyship/internal/logger"
	"github.com/lucksec/polyship/internal/profile"
	"github.com/lucksec/polyship/internal/repository"
	"github.com/lucksec/polyship/internal/service"
)

func main() {
	os.Exit(run(newApp(os.Stdout, os.Stderr), os.Args[1:]))
}

// app 命令共享的运行时状态，在每次命令执行前根据 --cwd 初始化
type app struct {
	workDir  string // --cwd
	logLevel string // --log-level

	out    io.Writer
	errOut io.Writer

	settings *config.Settings
	profiles profile.Manager
	registry *service.ProviderRegistry
	pipeline service.PipelineService

	// newPipeline 组装流水线，测试中替换为假实现
	newPipeline func(a *app) service.PipelineService
}

// newApp 创建使用默认组件的 app
func newApp(out, errOut io.Writer) *app {
	return &app{
		out:         out,
		errOut:      errOut,
		registry:    service.DefaultProviderRegistry(),
		newPipeline: defaultPipeline,
	}
}

// run 执行命令并返回进程退出码
func run(a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		a.reportError(err)
		return 1
	}
	return 0
}

// newRootCmd 创建根命令，控制台每执行一行都会重新创建
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   internal.Name,
		Short: "polyship 将 TypeScript 项目编译打包为各运行平台的部署产物",
		Long: `polyship 将一个面向多个运行平台的 TypeScript 项目编译、打包为平台专用的部署产物，
并可以将产物部署到 Cloud Run。

项目配置文件（按顺序查找）: polyship.config.json, .polyshiprc.json, polyship.config.hcl
工具配置文件: ./.polyship.ini 或 ~/.polyship/config.ini`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVar(&a.workDir, "cwd", "", "项目目录（默认为当前目录）")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别: debug, info, warn, error")

	rootCmd.AddCommand(buildCmd(a))
	rootCmd.AddCommand(deployCmd(a))
	rootCmd.AddCommand(removeCmd(a))
	rootCmd.AddCommand(statusCmd(a))
	rootCmd.AddCommand(profileCmd(a))
	rootCmd.AddCommand(newConsoleCmd(a))
	rootCmd.AddCommand(versionCmd(a))

	setupCompletion(rootCmd, a)
	return rootCmd
}

// init 加载工具配置、初始化日志并组装服务
func (a *app) init() error {
	if a.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("获取当前目录失败: %w", err)
		}
		a.workDir = wd
	}
	abs, err := filepath.Abs(a.workDir)
	if err != nil {
		return fmt.Errorf("解析项目目录失败: %w", err)
	}
	a.workDir = abs

	settings, err := config.LoadSettings(a.workDir)
	if err != nil {
		return err
	}
	a.settings = settings

	level := settings.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	log, err := logger.InitLogger(&logger.Config{
		Level:         logger.ParseLevel(level),
		EnableConsole: settings.Log.EnableConsole,
		Console:       a.errOut,
		EnableFile:    settings.Log.EnableFile,
		LogDir:        settings.Log.LogDir,
		LogFile:       settings.Log.LogFile,
	})
	if err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	log.Debug("配置加载成功: workDir=%s, settings=%s", a.workDir, settings.Path)

	profiles, err := profile.NewManager(a.profilePath())
	if err != nil {
		return err
	}
	a.profiles = profiles
	a.pipeline = a.newPipeline(a)
	return nil
}

// profilePath 保存 profile 的配置文件：已加载的配置文件，否则为用户目录下的配置
func (a *app) profilePath() string {
	if a.settings != nil && a.settings.Path != "" {
		return a.settings.Path
	}
	paths := config.SettingsPaths(a.workDir)
	return paths[len(paths)-1]
}

// defaultPipeline 使用真实进程和文件系统组装流水线
func defaultPipeline(a *app) service.PipelineService {
	runner := executil.NewRunner()
	platform := executil.HostPlatform()
	packages := repository.NewPackageRepository()

	return service.NewPipelineService(service.PipelineDeps{
		Resolver:  service.NewResolverService(),
		Compiler:  service.NewCompileService(runner, platform),
		Packager:  service.NewPackagerService(a.registry, packages),
		Manifests: repository.NewManifestRepository(),
		Packages:  packages,
		Registry:  a.registry,
		Remotes: map[string]service.RemoteService{
			"cloudrun": service.NewCloudRunService(runner, platform),
		},
		Profiles: a.profiles,
	})
}

// reportError 在命令边界输出错误
// 输入校验错误只输出一行提示，远程工具错误额外记录堆栈
func (a *app) reportError(err error) {
	if domain.IsValidation(err) {
		fmt.Fprintf(a.errOut, "错误: %v\n", err)
		return
	}
	if errors.Is(err, domain.ErrRemoteToolExitNonzero) || errors.Is(err, domain.ErrRemoteToolSpawnFailed) {
		logger.GetLogger().Error("%+v", err)
	}
	fmt.Fprintf(a.errOut, "执行命令失败: %v\n", err)
}
