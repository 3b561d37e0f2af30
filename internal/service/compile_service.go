package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/executil"
	"github.com/lucksec/polyship/internal/logger"
)

// 编译器的包名和可执行文件名
const (
	CompilerPackage = "typescript"
	CompilerBinary  = "tsc"
)

// outputExtensions 源文件扩展名到编译产物扩展名的映射
var outputExtensions = map[string]string{
	".ts":  ".js",
	".tsx": ".js",
	".mts": ".mjs",
	".cts": ".cjs",
}

// CompileService 编译服务接口
type CompileService interface {
	// Compile 执行编译并校验产物，返回编译结果
	Compile(ctx context.Context, plan *domain.BuildPlan) (*domain.BuildResult, error)

	// ExpectedOutput 返回编译后入口文件应当所在的位置
	ExpectedOutput(plan *domain.BuildPlan) string

	// LocateCompiler 在项目目录及其上级目录的 node_modules/.bin 中查找编译器
	LocateCompiler(workDir string) (string, error)
}

// compileService 编译服务实现
type compileService struct {
	runner   executil.Runner
	platform executil.Platform
}

// NewCompileService 创建编译服务实例
func NewCompileService(runner executil.Runner, platform executil.Platform) CompileService {
	return &compileService{
		runner:   runner,
		platform: platform,
	}
}

// Compile 执行编译并校验产物
func (s *compileService) Compile(ctx context.Context, plan *domain.BuildPlan) (*domain.BuildResult, error) {
	log := logger.GetLogger()

	if _, err := os.Stat(plan.EntryPath); err != nil {
		return nil, fmt.Errorf("%w: %s (provider=%s)", domain.ErrProviderEntryMissing, plan.EntryPath, plan.Provider)
	}

	if err := os.MkdirAll(plan.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	tsc, err := s.LocateCompiler(plan.WorkDir)
	if err != nil {
		return nil, err
	}

	cmd := executil.Command{
		Name: tsc,
		Args: []string{"-p", plan.TsconfigPath, "--outDir", plan.OutDir},
		Dir:  plan.WorkDir,
	}
	log.Info("开始编译: %s", cmd)

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		log.Error("无法启动编译器: %v", err)
		return nil, &domain.ExitError{Tool: CompilerBinary, Code: -1, Kind: domain.ErrCompileFailed}
	}
	if res.ExitCode != 0 {
		log.Error("编译失败: exitCode=%d", res.ExitCode)
		return nil, &domain.ExitError{Tool: CompilerBinary, Code: res.ExitCode, Kind: domain.ErrCompileFailed}
	}

	expected := s.ExpectedOutput(plan)
	if _, err := os.Stat(expected); err != nil {
		return nil, fmt.Errorf("%w: 期望的入口文件 %s 不存在", domain.ErrCompileOutputMissing, expected)
	}

	log.Info("编译成功: %s", expected)
	return &domain.BuildResult{
		Provider:           plan.Provider,
		OutDir:             plan.OutDir,
		EntrypointArtifact: expected,
		ManifestDir:        plan.ArtifactDir,
	}, nil
}

// ExpectedOutput 返回编译后入口文件应当所在的位置
// 入口相对于 tsconfig 的 rootDir（未声明时相对于项目目录），放到 outDir 下并替换扩展名
func (s *compileService) ExpectedOutput(plan *domain.BuildPlan) string {
	base := plan.WorkDir
	if rootDir := readRootDir(plan.TsconfigPath); rootDir != "" {
		base = rootDir
	}

	rel, err := filepath.Rel(base, plan.EntryPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel, err = filepath.Rel(plan.WorkDir, plan.EntryPath)
		if err != nil {
			rel = filepath.Base(plan.EntryPath)
		}
	}
	return filepath.Join(plan.OutDir, OutputFileName(rel))
}

// LocateCompiler 在项目目录及其上级目录的 node_modules/.bin 中查找编译器
func (s *compileService) LocateCompiler(workDir string) (string, error) {
	binary := s.platform.Executable(CompilerBinary)
	for _, dir := range ancestors(workDir) {
		candidate := filepath.Join(dir, "node_modules", ".bin", binary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			logger.GetLogger().Debug("找到编译器: %s", candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: 未找到 %s，请先安装 %s（npm install --save-dev %s）",
		domain.ErrToolNotInstalled, binary, CompilerPackage, CompilerPackage)
}

// OutputFileName 将源文件扩展名替换为编译产物扩展名，未知扩展名保持不变
func OutputFileName(name string) string {
	ext := filepath.Ext(name)
	if mapped, ok := outputExtensions[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext) + mapped
	}
	return name
}

// tsconfigFile tsconfig.json 中需要的字段
type tsconfigFile struct {
	CompilerOptions struct {
		RootDir string `json:"rootDir"`
	} `json:"compilerOptions"`
}

// readRootDir 读取 tsconfig 的 rootDir（相对于 tsconfig 所在目录）
// 文件不存在或不是严格 JSON 时返回空字符串
func readRootDir(tsconfigPath string) string {
	data, err := os.ReadFile(tsconfigPath)
	if err != nil {
		return ""
	}
	var cfg tsconfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.GetLogger().Debug("tsconfig 不是严格 JSON，忽略 rootDir: %s", tsconfigPath)
		return ""
	}
	if cfg.CompilerOptions.RootDir == "" {
		return ""
	}
	return absPath(filepath.Dir(tsconfigPath), cfg.CompilerOptions.RootDir)
}
