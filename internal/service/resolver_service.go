package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lucksec/polyship/internal/config"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/logger"
)

// 配置未声明时使用的默认值
const (
	DefaultProvider     = "local"
	DefaultEntry        = "src/index.ts"
	DefaultOutDir       = "dist"
	DefaultTsconfig     = "tsconfig.json"
	DefaultArtifactRoot = "deploy"
)

// BuildOverrides 命令行传入的覆盖项
type BuildOverrides struct {
	Provider string // --provider
	Entry    string // --entry
	OutDir   string // --outDir
}

// ResolverService 配置解析服务接口
type ResolverService interface {
	// Load 从工作目录加载项目配置
	Load(ctx context.Context, workDir string) (*domain.ProjectConfig, error)

	// Resolve 合并项目配置与命令行覆盖项，得到编译计划
	Resolve(ctx context.Context, workDir string, cfg *domain.ProjectConfig, overrides BuildOverrides) (*domain.BuildPlan, error)
}

// resolverService 配置解析服务实现（只读，无副作用）
type resolverService struct{}

// NewResolverService 创建配置解析服务实例
func NewResolverService() ResolverService {
	return &resolverService{}
}

// Load 从工作目录加载项目配置
func (s *resolverService) Load(ctx context.Context, workDir string) (*domain.ProjectConfig, error) {
	cfg, path, err := config.LoadProject(workDir)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().Debug("加载项目配置: path=%s, providers=%v", path, cfg.ProviderNames())
	return cfg, nil
}

// Resolve 合并项目配置与命令行覆盖项，得到编译计划
func (s *resolverService) Resolve(ctx context.Context, workDir string, cfg *domain.ProjectConfig, overrides BuildOverrides) (*domain.BuildPlan, error) {
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("解析工作目录失败: %w", err)
	}

	if len(cfg.Providers) == 0 && overrides.Entry == "" {
		return nil, fmt.Errorf("%w: 项目配置中至少需要一个 provider", domain.ErrProviderEntryMissing)
	}

	provider := SelectProvider(cfg, overrides.Provider)
	entry := SelectEntry(cfg, provider, overrides.Entry)

	outDir := firstNonEmpty(overrides.OutDir, cfg.Build.OutDir, DefaultOutDir)
	tsconfig := firstNonEmpty(cfg.Build.TsconfigPath, cfg.Dev.Tsconfig, DefaultTsconfig)

	plan := &domain.BuildPlan{
		WorkDir:      absWorkDir,
		Provider:     provider,
		EntryPath:    absPath(absWorkDir, entry),
		OutDir:       absPath(absWorkDir, outDir),
		TsconfigPath: absPath(absWorkDir, tsconfig),
		ArtifactDir:  ArtifactDir(absWorkDir, cfg, provider),
	}

	logger.GetLogger().Debug("编译计划: provider=%s, entry=%s, outDir=%s, tsconfig=%s",
		plan.Provider, plan.EntryPath, plan.OutDir, plan.TsconfigPath)
	return plan, nil
}

// SelectProvider 命令行参数 > defaultProvider > 第一个声明的 provider > "local"
func SelectProvider(cfg *domain.ProjectConfig, flag string) string {
	if cfg == nil {
		return firstNonEmpty(flag, DefaultProvider)
	}
	return firstNonEmpty(flag, cfg.DefaultProvider, cfg.FirstProvider(), DefaultProvider)
}

// SelectEntry 命令行 --entry > 选定 provider 的入口 > 默认 provider 的入口 > src/index.ts
func SelectEntry(cfg *domain.ProjectConfig, provider, flag string) string {
	if flag != "" {
		return flag
	}
	if p, ok := cfg.Providers[provider]; ok && p.Entry != "" {
		return p.Entry
	}
	if p, ok := cfg.Providers[cfg.DefaultProvider]; ok && p.Entry != "" {
		return p.Entry
	}
	return DefaultEntry
}

// ArtifactDir 返回提供方的产物目录：<deploy.artifactDir 或 deploy>/<provider>
func ArtifactDir(workDir string, cfg *domain.ProjectConfig, provider string) string {
	root := DefaultArtifactRoot
	if cfg != nil && cfg.Deploy != nil && cfg.Deploy.ArtifactDir != "" {
		root = cfg.Deploy.ArtifactDir
	}
	return filepath.Join(absPath(workDir, root), provider)
}

// absPath 将相对路径解析为相对 base 的绝对路径
func absPath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// firstNonEmpty 返回第一个非空字符串
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
