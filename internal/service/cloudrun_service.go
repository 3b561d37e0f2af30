package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lucksec/polyship/internal"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/executil"
	"github.com/lucksec/polyship/internal/logger"
)

// RemoteTool 远程部署使用的命令行工具
const RemoteTool = "gcloud"

// RemoteService 远程部署服务接口
type RemoteService interface {
	// Deploy 将产物目录部署为远程服务（创建或更新）
	Deploy(ctx context.Context, artifactDir string, opts domain.RemoteDeployOptions) (*domain.RemoteOutcome, error)

	// Remove 按名称删除远程服务
	Remove(ctx context.Context, opts domain.RemoteRemoveOptions) (*domain.RemoteOutcome, error)
}

// cloudRunService 基于 gcloud run 的远程部署实现
type cloudRunService struct {
	runner   executil.Runner
	platform executil.Platform
}

// NewCloudRunService 创建 Cloud Run 部署服务实例
func NewCloudRunService(runner executil.Runner, platform executil.Platform) RemoteService {
	return &cloudRunService{
		runner:   runner,
		platform: platform,
	}
}

// Deploy 执行 gcloud run deploy
func (s *cloudRunService) Deploy(ctx context.Context, artifactDir string, opts domain.RemoteDeployOptions) (*domain.RemoteOutcome, error) {
	log := logger.GetLogger()
	outcome := &domain.RemoteOutcome{State: domain.RemoteIdle}

	if opts.Name == "" {
		return outcome, errors.WithStack(domain.ErrServiceNameRequired)
	}
	if err := opts.Validate(); err != nil {
		return outcome, err
	}

	outcome.Args = DeployArgs(artifactDir, opts)
	log.Info("开始部署 Cloud Run 服务: name=%s, project=%s, region=%s", opts.Name, opts.Project, opts.Region)

	if err := s.invoke(ctx, outcome, artifactDir); err != nil {
		log.Error("Cloud Run 部署失败: name=%s, exitCode=%d", opts.Name, outcome.ExitCode)
		return outcome, errors.Wrapf(err, "部署 Cloud Run 服务 %s 失败", opts.Name)
	}

	log.Info("Cloud Run 部署成功: name=%s", opts.Name)
	return outcome, nil
}

// Remove 执行 gcloud run services delete
func (s *cloudRunService) Remove(ctx context.Context, opts domain.RemoteRemoveOptions) (*domain.RemoteOutcome, error) {
	log := logger.GetLogger()
	outcome := &domain.RemoteOutcome{State: domain.RemoteIdle}

	if opts.Name == "" {
		return outcome, errors.WithStack(domain.ErrServiceNameRequired)
	}

	outcome.Args = RemoveArgs(opts)
	log.Info("开始删除 Cloud Run 服务: name=%s, project=%s, region=%s", opts.Name, opts.Project, opts.Region)

	if err := s.invoke(ctx, outcome, ""); err != nil {
		log.Error("Cloud Run 删除失败: name=%s, exitCode=%d", opts.Name, outcome.ExitCode)
		return outcome, errors.Wrapf(err, "删除 Cloud Run 服务 %s 失败", opts.Name)
	}

	log.Info("Cloud Run 服务已删除: name=%s", opts.Name)
	return outcome, nil
}

// invoke 启动 gcloud 并根据退出码更新状态
func (s *cloudRunService) invoke(ctx context.Context, outcome *domain.RemoteOutcome, dir string) error {
	cmd := executil.Command{
		Name: s.platform.Executable(RemoteTool),
		Args: outcome.Args,
		Dir:  dir,
	}
	logger.GetLogger().Debug("执行: %s", cmd)

	outcome.State = domain.RemoteInvoking
	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		outcome.State = domain.RemoteFailed
		outcome.ExitCode = -1
		logger.GetLogger().Error("无法启动 %s: %v", RemoteTool, err)
		return &domain.ExitError{Tool: RemoteTool, Code: -1, Kind: domain.ErrRemoteToolSpawnFailed}
	}

	outcome.ExitCode = res.ExitCode
	if res.ExitCode != 0 {
		outcome.State = domain.RemoteFailed
		return &domain.ExitError{Tool: RemoteTool, Code: res.ExitCode, Kind: domain.ErrRemoteToolExitNonzero}
	}
	outcome.State = domain.RemoteSucceeded
	return nil
}

// DeployArgs 构造 gcloud run deploy 的参数，未设置的选项不传递
func DeployArgs(artifactDir string, opts domain.RemoteDeployOptions) []string {
	args := []string{
		"run", "deploy", opts.Name,
		"--source", artifactDir,
		"--port", strconv.Itoa(internal.ListenPort),
		"--allow-unauthenticated",
	}
	args = appendLocation(args, opts.Project, opts.Region)
	args = appendInt(args, "--min-instances", opts.MinInstances)
	args = appendInt(args, "--max-instances", opts.MaxInstances)
	args = appendInt(args, "--concurrency", opts.Concurrency)
	args = appendString(args, "--timeout", opts.Timeout)
	args = appendString(args, "--cpu", opts.CPU)
	args = appendString(args, "--memory", opts.Memory)
	return args
}

// RemoveArgs 构造 gcloud run services delete 的参数
func RemoveArgs(opts domain.RemoteRemoveOptions) []string {
	args := []string{"run", "services", "delete", opts.Name}
	args = appendLocation(args, opts.Project, opts.Region)
	return append(args, "--quiet")
}

func appendLocation(args []string, project, region string) []string {
	args = appendString(args, "--project", project)
	return appendString(args, "--region", region)
}

func appendString(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

func appendInt(args []string, flag string, value *int) []string {
	if value == nil {
		return args
	}
	return append(args, flag, strconv.Itoa(*value))
}

// ResolveServiceName 命令行参数 > POLYSHIP_SERVICE_NAME > package.json 的 name（去掉 @scope/）
func ResolveServiceName(flag string, getenv func(string) string, descriptor *domain.PackageDescriptor) string {
	if name := strings.TrimSpace(flag); name != "" {
		return name
	}
	if getenv != nil {
		if name := strings.TrimSpace(getenv(internal.ServiceNameEnv)); name != "" {
			return name
		}
	}
	if descriptor != nil {
		return StripScope(descriptor.Name)
	}
	return ""
}

// StripScope 去掉包名的 @scope/ 前缀
func StripScope(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}
