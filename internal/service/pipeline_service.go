package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/logger"
	"github.com/lucksec/polyship/internal/profile"
	"github.com/lucksec/polyship/internal/repository"
)

// DeployRequest deploy 命令的输入
type DeployRequest struct {
	Overrides BuildOverrides             // 编译覆盖项
	Remote    domain.RemoteDeployOptions // 远程部署选项
	// ContinueOnRemoteFailure 远程部署失败时只记录日志，不作为命令失败
	ContinueOnRemoteFailure bool
}

// DeployReport deploy 各阶段的结果
type DeployReport struct {
	Build     *domain.BuildResult
	Package   *domain.PackageResult
	Manifest  *domain.DeployManifest
	Remote    *domain.RemoteOutcome // 没有远程驱动时为 nil
	RemoteErr error                 // 远程阶段的错误
}

// RemoveRequest remove 命令的输入
type RemoveRequest struct {
	Provider string
	Remote   domain.RemoteRemoveOptions
}

// PipelineService 构建部署流水线接口
type PipelineService interface {
	// Build 解析配置并编译，检查编译产物
	Build(ctx context.Context, workDir string, overrides BuildOverrides) (*domain.BuildResult, error)

	// Deploy 编译、打包、写入清单，并在提供方有远程驱动时部署
	Deploy(ctx context.Context, workDir string, req DeployRequest) (*DeployReport, error)

	// Remove 删除提供方的远程服务
	Remove(ctx context.Context, workDir string, req RemoveRequest) (*domain.RemoteOutcome, error)

	// Status 读取提供方产物目录中的部署清单
	Status(ctx context.Context, workDir, provider string) (*domain.DeployManifest, error)
}

// PipelineDeps 流水线依赖的服务
type PipelineDeps struct {
	Resolver  ResolverService
	Compiler  CompileService
	Packager  PackagerService
	Manifests repository.ManifestRepository
	Packages  repository.PackageRepository
	Registry  *ProviderRegistry
	Remotes   map[string]RemoteService // 提供方名称到远程驱动
	Profiles  profile.Manager
	Getenv    func(string) string
	Now       func() time.Time
	NewID     func() string
}

// pipelineService 流水线实现，所有阶段顺序执行
type pipelineService struct {
	PipelineDeps
}

// NewPipelineService 创建流水线实例，未提供的可选依赖使用默认实现
func NewPipelineService(deps PipelineDeps) PipelineService {
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Registry == nil {
		deps.Registry = DefaultProviderRegistry()
	}
	return &pipelineService{PipelineDeps: deps}
}

// Build 解析配置并编译，检查编译产物
func (s *pipelineService) Build(ctx context.Context, workDir string, overrides BuildOverrides) (*domain.BuildResult, error) {
	plan, result, err := s.compile(ctx, workDir, overrides)
	if err != nil {
		return nil, err
	}
	if err := s.Packager.CheckSource(result); err != nil {
		return nil, err
	}
	logger.GetLogger().Debug("构建完成: provider=%s, outDir=%s", plan.Provider, plan.OutDir)
	return result, nil
}

// Deploy 编译、打包、写入清单，并在提供方有远程驱动时部署
func (s *pipelineService) Deploy(ctx context.Context, workDir string, req DeployRequest) (*DeployReport, error) {
	log := logger.GetLogger()

	if err := req.Remote.Validate(); err != nil {
		return nil, err
	}

	plan, result, err := s.compile(ctx, workDir, req.Overrides)
	if err != nil {
		return nil, err
	}
	report := &DeployReport{Build: result}

	pkg, err := s.Packager.Package(ctx, plan, result)
	if err != nil {
		return nil, err
	}
	report.Package = pkg

	defer RemoveTransient(pkg.Transient)

	manifest, err := s.writeManifest(plan, pkg)
	if err != nil {
		return nil, err
	}
	report.Manifest = manifest

	remote, ok := s.remoteFor(plan.Provider)
	if !ok {
		log.Info("提供方 %s 没有远程部署驱动，产物位于 %s", plan.Provider, plan.ArtifactDir)
		return report, nil
	}

	opts := req.Remote
	opts.Name = ResolveServiceName(opts.Name, s.Getenv, s.loadDescriptor(plan.WorkDir))
	target := s.resolveTarget(plan.Provider, opts.Project, opts.Region)
	opts.Project, opts.Region = target.Project, target.Region

	outcome, remoteErr := remote.Deploy(ctx, plan.ArtifactDir, opts)
	report.Remote = outcome
	if remoteErr != nil {
		report.RemoteErr = remoteErr
		if !req.ContinueOnRemoteFailure {
			return report, remoteErr
		}
		log.Error("远程部署失败，产物已保留在 %s: %+v", plan.ArtifactDir, remoteErr)
	}
	return report, nil
}

// Remove 删除提供方的远程服务
func (s *pipelineService) Remove(ctx context.Context, workDir string, req RemoveRequest) (*domain.RemoteOutcome, error) {
	cfg, err := s.loadOptional(ctx, workDir)
	if err != nil {
		return nil, err
	}

	provider := SelectProvider(cfg, req.Provider)
	remote, ok := s.remoteFor(provider)
	if !ok {
		return nil, fmt.Errorf("提供方 %s 不支持远程删除", provider)
	}

	opts := req.Remote
	opts.Name = ResolveServiceName(opts.Name, s.Getenv, s.loadDescriptor(workDir))
	if opts.Name == "" {
		return nil, domain.ErrServiceNameRequired
	}
	target := s.resolveTarget(provider, opts.Project, opts.Region)
	opts.Project, opts.Region = target.Project, target.Region

	return remote.Remove(ctx, opts)
}

// Status 读取提供方产物目录中的部署清单
func (s *pipelineService) Status(ctx context.Context, workDir, provider string) (*domain.DeployManifest, error) {
	cfg, err := s.loadOptional(ctx, workDir)
	if err != nil {
		return nil, err
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("解析工作目录失败: %w", err)
	}
	return s.Manifests.Load(ArtifactDir(absWorkDir, cfg, SelectProvider(cfg, provider)))
}

// compile 加载配置、解析编译计划并执行编译
func (s *pipelineService) compile(ctx context.Context, workDir string, overrides BuildOverrides) (*domain.BuildPlan, *domain.BuildResult, error) {
	cfg, err := s.Resolver.Load(ctx, workDir)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.Resolver.Resolve(ctx, workDir, cfg, overrides)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Compiler.Compile(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	return plan, result, nil
}

// writeManifest 写入部署清单，artifact 记录为相对工作目录的路径
func (s *pipelineService) writeManifest(plan *domain.BuildPlan, pkg *domain.PackageResult) (*domain.DeployManifest, error) {
	artifact, err := filepath.Rel(plan.WorkDir, pkg.EntryFile)
	if err != nil {
		artifact = pkg.EntryFile
	}

	manifest := &domain.DeployManifest{
		Provider: plan.Provider,
		BuiltAt:  s.Now().UTC().Truncate(time.Second),
		Artifact: filepath.ToSlash(artifact),
		BuildID:  s.NewID(),
	}
	if err := s.Manifests.Save(pkg.ArtifactDir, manifest); err != nil {
		return nil, err
	}
	logger.GetLogger().Info("已写入部署清单: %s", s.Manifests.Path(pkg.ArtifactDir))
	return manifest, nil
}

// loadOptional 加载项目配置，配置文件不存在时返回 nil
func (s *pipelineService) loadOptional(ctx context.Context, workDir string) (*domain.ProjectConfig, error) {
	cfg, err := s.Resolver.Load(ctx, workDir)
	if errors.Is(err, domain.ErrConfigNotFound) {
		logger.GetLogger().Debug("未找到项目配置，使用默认值")
		return nil, nil
	}
	return cfg, err
}

// loadDescriptor 读取项目 package.json，不存在或无法解析时返回 nil
func (s *pipelineService) loadDescriptor(workDir string) *domain.PackageDescriptor {
	if s.Packages == nil {
		return nil
	}
	descriptor, err := s.Packages.Load(workDir)
	if err != nil {
		logger.GetLogger().Debug("读取 package.json 失败: %v", err)
		return nil
	}
	return descriptor
}

// remoteFor 返回提供方的远程驱动
func (s *pipelineService) remoteFor(provider string) (RemoteService, bool) {
	if !s.Registry.Lookup(provider).Remote {
		return nil, false
	}
	remote, ok := s.Remotes[provider]
	return remote, ok && remote != nil
}

// resolveTarget 补全远程部署的项目和区域
func (s *pipelineService) resolveTarget(provider, project, region string) profile.Profile {
	if s.Profiles == nil {
		return profile.Profile{Project: project, Region: region}
	}
	return s.Profiles.Resolve(provider, project, region)
}
