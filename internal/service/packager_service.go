package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucksec/polyship/internal"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/logger"
	"github.com/lucksec/polyship/internal/repository"
)

// PackagerService 产物打包服务接口
type PackagerService interface {
	// CheckSource 检查编译后的入口文件是否存在
	CheckSource(result *domain.BuildResult) error

	// Package 将编译产物打包到提供方的产物目录
	Package(ctx context.Context, plan *domain.BuildPlan, result *domain.BuildResult) (*domain.PackageResult, error)
}

// packagerService 产物打包服务实现
type packagerService struct {
	registry *ProviderRegistry
	packages repository.PackageRepository
}

// NewPackagerService 创建产物打包服务实例
func NewPackagerService(registry *ProviderRegistry, packages repository.PackageRepository) PackagerService {
	return &packagerService{
		registry: registry,
		packages: packages,
	}
}

// CheckSource 检查编译后的入口文件是否存在
func (s *packagerService) CheckSource(result *domain.BuildResult) error {
	info, err := os.Stat(result.EntrypointArtifact)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrSourceArtifactMissing, result.EntrypointArtifact)
	}
	return nil
}

// Package 将编译产物打包到提供方的产物目录
// 失败时删除本次已生成的临时文件
func (s *packagerService) Package(ctx context.Context, plan *domain.BuildPlan, result *domain.BuildResult) (*domain.PackageResult, error) {
	if err := s.CheckSource(result); err != nil {
		return nil, err
	}

	pkg := &domain.PackageResult{ArtifactDir: plan.ArtifactDir}
	if err := s.pack(ctx, plan, result, pkg); err != nil {
		RemoveTransient(pkg.Transient)
		return nil, err
	}

	logger.GetLogger().Info("打包完成: entry=%s", pkg.EntryFile)
	return pkg, nil
}

// pack 依次执行复制、入口、包描述和容器文件步骤，结果写入 pkg
func (s *packagerService) pack(ctx context.Context, plan *domain.BuildPlan, result *domain.BuildResult, pkg *domain.PackageResult) error {
	log := logger.GetLogger()

	spec := s.registry.Lookup(plan.Provider)
	artifactDir := pkg.ArtifactDir
	log.Info("开始打包: provider=%s, artifactDir=%s", spec.Name, artifactDir)

	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return fmt.Errorf("%w: 创建 %s: %v", domain.ErrCopyFailed, artifactDir, err)
	}

	if filepath.Clean(result.OutDir) != filepath.Clean(artifactDir) {
		skipArtifactDir := func(path string, d fs.DirEntry) bool {
			return d.IsDir() && filepath.Clean(path) == filepath.Clean(artifactDir)
		}
		if err := copyTree(result.OutDir, artifactDir, skipArtifactDir); err != nil {
			return err
		}
	}

	descriptor, err := s.packages.Load(plan.WorkDir)
	if errors.Is(err, domain.ErrPackageDescriptorMissing) {
		log.Info("%v，继续打包但不生成 package.json", err)
		descriptor = nil
	} else if err != nil {
		return err
	}

	entryFile, err := writeCanonicalEntry(result, artifactDir, descriptor)
	if err != nil {
		return err
	}
	pkg.EntryFile = entryFile

	if descriptor != nil {
		pruned := PruneDescriptor(descriptor, filepath.Base(entryFile))

		if _, declared := pruned.Dependencies[internal.FrameworkPackage]; declared {
			copied, err := s.placeFramework(ctx, spec, plan.WorkDir, artifactDir)
			if err != nil {
				return err
			}
			if copied != nil {
				pruned.Dependencies[internal.FrameworkPackage] = copied.Ref
				pkg.FrameworkRef = copied.Ref
				if copied.Transient {
					pkg.Transient = append(pkg.Transient, copied.Path)
				}
			}
		}

		path, err := s.packages.SavePruned(artifactDir, pruned)
		if err != nil {
			return err
		}
		pkg.DescriptorPath = path
	}

	if spec.Packaging == PackageContainer {
		return writeContainerFiles(pkg)
	}
	return nil
}

// RemoveTransient 删除仅为本次部署生成的文件
func RemoveTransient(paths []string) {
	log := logger.GetLogger()
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			log.Warn("清理临时文件失败: %s: %v", path, err)
			continue
		}
		log.Debug("已清理临时文件: %s", path)
	}
}

// placeFramework 按提供方的方式将框架放入产物目录，未找到框架时返回 nil
func (s *packagerService) placeFramework(ctx context.Context, spec ProviderSpec, workDir, artifactDir string) (*FrameworkCopy, error) {
	log := logger.GetLogger()

	if spec.Framework == FrameworkNone {
		return nil, nil
	}

	frameworkDir, ok := LocateFramework(workDir, internal.FrameworkPackage)
	if !ok {
		log.Warn("未在 node_modules 中找到 %s，保留注册表依赖", internal.FrameworkPackage)
		return nil, nil
	}

	switch spec.Framework {
	case FrameworkArchive:
		return PackFramework(ctx, frameworkDir, artifactDir, spec.TransientFramework)
	default:
		return CopyFramework(frameworkDir, artifactDir)
	}
}

// PruneDescriptor 生成只包含运行所需字段的包描述
func PruneDescriptor(d *domain.PackageDescriptor, entryName string) *domain.PrunedDescriptor {
	deps := make(map[string]string, len(d.Dependencies))
	for name, version := range d.Dependencies {
		deps[name] = version
	}
	return &domain.PrunedDescriptor{
		Name:         d.Name,
		Version:      d.Version,
		Private:      true,
		Type:         d.Type,
		Scripts:      map[string]string{"start": "node " + entryName},
		Dependencies: deps,
	}
}

// FallbackEntryName 编译产物中已有其他 index<ext> 时使用的入口文件名（不含扩展名）
const FallbackEntryName = "polyship-entry"

// writeCanonicalEntry 确保产物根目录下存在规范入口，返回其绝对路径
// 规范入口为 index<ext>，该名称已被编译产物占用时改用 FallbackEntryName
func writeCanonicalEntry(result *domain.BuildResult, artifactDir string, descriptor *domain.PackageDescriptor) (string, error) {
	ext := filepath.Ext(result.EntrypointArtifact)

	rel, err := filepath.Rel(result.OutDir, result.EntrypointArtifact)
	if err != nil {
		return "", fmt.Errorf("%w: 入口 %s 不在输出目录中", domain.ErrCopyFailed, result.EntrypointArtifact)
	}
	if rel == "index"+ext {
		return filepath.Join(artifactDir, rel), nil
	}

	shim := EntryShim(filepath.ToSlash(rel), ext, descriptor.IsModule())
	name := "index" + ext
	if occupied(filepath.Join(result.OutDir, name), shim) {
		name = FallbackEntryName + ext
		if occupied(filepath.Join(result.OutDir, name), shim) {
			return "", fmt.Errorf("%w: 编译产物中已存在 index%s 和 %s，无法生成入口", domain.ErrCopyFailed, ext, name)
		}
		logger.GetLogger().Warn("编译产物中已存在 index%s，入口改为 %s", ext, name)
	}

	canonical := filepath.Join(artifactDir, name)
	if err := os.WriteFile(canonical, []byte(shim), 0644); err != nil {
		return "", fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, canonical, err)
	}
	logger.GetLogger().Debug("生成入口: %s -> %s", canonical, rel)
	return canonical, nil
}

// occupied 判断路径上是否已有内容不同于 shim 的文件
// 输出目录即产物目录时，上次生成的入口不算占用
func occupied(path, shim string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return string(content) != shim
}

// EntryShim 生成加载真实入口的单行代码
// .mjs 和 type=module 的 .js 使用 import，其余使用 require
func EntryShim(rel, ext string, module bool) string {
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	switch {
	case ext == ".mjs", ext == ".js" && module:
		return fmt.Sprintf("import %q;\n", rel)
	default:
		return fmt.Sprintf("require(%q);\n", rel)
	}
}

// writeContainerFiles 生成 Dockerfile 和 .dockerignore
func writeContainerFiles(pkg *domain.PackageResult) error {
	spec := DefaultContainerSpec(filepath.Base(pkg.EntryFile))
	if pkg.DescriptorPath != "" {
		spec.Descriptor = filepath.Base(pkg.DescriptorPath)
	}
	if strings.HasSuffix(pkg.FrameworkRef, ".tgz") {
		spec.Archive = strings.TrimPrefix(pkg.FrameworkRef, "file:./")
	}

	pkg.ContainerFile = filepath.Join(pkg.ArtifactDir, ContainerFileName)
	if err := os.WriteFile(pkg.ContainerFile, []byte(RenderContainerFile(spec)), 0644); err != nil {
		return fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, pkg.ContainerFile, err)
	}

	pkg.IgnoreFile = filepath.Join(pkg.ArtifactDir, IgnoreFileName)
	if err := os.WriteFile(pkg.IgnoreFile, []byte(RenderIgnoreFile()), 0644); err != nil {
		return fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, pkg.IgnoreFile, err)
	}
	return nil
}

// copyTree 递归复制目录中的文件，skip 返回 true 的条目（及目录下的内容）被跳过，空目录不复制
func copyTree(src, dst string, skip func(path string, d fs.DirEntry) bool) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("%w: 创建 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCopyFailed, err)
		}
		if path != src && skip != nil && skip(path, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCopyFailed, err)
		}
		target := filepath.Join(dst, rel)

		// 目录在复制其中的文件时再创建
		if d.IsDir() {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("%w: 创建 %s: %v", domain.ErrCopyFailed, filepath.Dir(target), err)
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("%w: 读取链接 %s: %v", domain.ErrCopyFailed, path, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(link, target); err != nil {
				return fmt.Errorf("%w: 创建链接 %s: %v", domain.ErrCopyFailed, target, err)
			}
		default:
			if err := copyFile(path, target); err != nil {
				return err
			}
		}
		return nil
	})
}

// copyFile 复制单个文件并保留权限位
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: 打开 %s: %v", domain.ErrCopyFailed, src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("%w: 读取 %s: %v", domain.ErrCopyFailed, src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: 创建 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	return nil
}
