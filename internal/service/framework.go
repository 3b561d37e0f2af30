package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/mholt/archives"

	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/logger"
	"github.com/lucksec/polyship/internal/repository"
)

// FrameworkMode 运行时框架在产物中的引用方式
type FrameworkMode int

const (
	// FrameworkNone 不处理框架依赖
	FrameworkNone FrameworkMode = iota
	// FrameworkDirectory 复制为产物目录下的 framework/ 子目录
	FrameworkDirectory
	// FrameworkArchive 打包为 <name>-<version>.tgz
	FrameworkArchive
)

// frameworkDirName 目录模式下框架在产物中的目录名
const frameworkDirName = "framework"

// archiveRoot 归档内的根目录，与 npm pack 的布局一致
const archiveRoot = "package"

// FrameworkCopy 放入产物目录的框架副本
type FrameworkCopy struct {
	Path      string // 副本的绝对路径（目录或归档）
	Ref       string // 写入依赖的本地引用，如 file:./framework
	Transient bool   // 是否为仅本次部署使用的临时文件
}

// LocateFramework 在 workDir 及其上级目录的 node_modules 中查找框架包
func LocateFramework(workDir, pkg string) (string, bool) {
	parts := strings.Split(pkg, "/")
	for _, dir := range ancestors(workDir) {
		candidate := filepath.Join(append([]string{dir, "node_modules"}, parts...)...)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			// 链接安装的包（pnpm、npm link）解析到真实目录
			if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
				return resolved, true
			}
			return candidate, true
		}
	}
	return "", false
}

// CopyFramework 将框架目录复制到 artifactDir/framework，跳过框架自身的 node_modules
func CopyFramework(frameworkDir, artifactDir string) (*FrameworkCopy, error) {
	dst := filepath.Join(artifactDir, frameworkDirName)
	if err := os.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("%w: 清理 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	if err := copyTree(frameworkDir, dst, skipNodeModules); err != nil {
		return nil, err
	}
	return &FrameworkCopy{Path: dst, Ref: "file:./" + frameworkDirName}, nil
}

// PackFramework 将框架目录打包为 tar+gzip 归档，条目位于 package/ 下
func PackFramework(ctx context.Context, frameworkDir, artifactDir string, transient bool) (*FrameworkCopy, error) {
	log := logger.GetLogger()

	descriptor, err := repository.NewPackageRepository().Load(frameworkDir)
	if err != nil {
		return nil, fmt.Errorf("读取框架包描述失败: %w", err)
	}

	name := ArchiveName(descriptor.Name, descriptor.Version)
	dst := filepath.Join(artifactDir, name)

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		frameworkDir: archiveRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: 收集框架文件: %v", domain.ErrCopyFailed, err)
	}
	files = withoutNodeModules(files)

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建 %s: %v", domain.ErrCopyFailed, dst, err)
	}
	packed := false
	defer func() {
		out.Close()
		// 失败时不留下不完整的归档
		if !packed {
			_ = os.Remove(dst)
		}
	}()

	format := archives.CompressedArchive{
		Archival:    archives.Tar{},
		Compression: archives.Gz{},
	}
	if err := format.Archive(ctx, out, files); err != nil {
		return nil, fmt.Errorf("%w: 打包框架: %v", domain.ErrCopyFailed, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, dst, err)
	}

	if err := verifyArchive(dst); err != nil {
		return nil, err
	}

	packed = true
	log.Debug("框架已打包: %s (%d 个条目)", dst, len(files))
	return &FrameworkCopy{Path: dst, Ref: "file:./" + name, Transient: transient}, nil
}

// ArchiveName 返回与 npm pack 相同的归档文件名，@scope/name 变为 scope-name
func ArchiveName(name, version string) string {
	base := strings.ReplaceAll(strings.TrimPrefix(name, "@"), "/", "-")
	if version == "" {
		return base + ".tgz"
	}
	return fmt.Sprintf("%s-%s.tgz", base, version)
}

// verifyArchive 检查生成的文件确实是 gzip 格式
func verifyArchive(path string) error {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return fmt.Errorf("%w: 检查归档 %s: %v", domain.ErrCopyFailed, path, err)
	}
	if kind.MIME.Value != "application/gzip" {
		return fmt.Errorf("%w: %s 不是 gzip 归档 (%s)", domain.ErrCopyFailed, path, kind.MIME.Value)
	}
	return nil
}

// withoutNodeModules 去掉归档中的 node_modules 条目
func withoutNodeModules(files []archives.FileInfo) []archives.FileInfo {
	kept := files[:0]
	for _, f := range files {
		if hasNodeModules(f.NameInArchive) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func hasNodeModules(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

// skipNodeModules copyTree 的过滤函数
func skipNodeModules(path string, d fs.DirEntry) bool {
	return d.IsDir() && d.Name() == "node_modules"
}

// ancestors 返回 dir 及其所有上级目录，由近到远
func ancestors(dir string) []string {
	dir = filepath.Clean(dir)
	dirs := []string{dir}
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dirs = append(dirs, parent)
		dir = parent
	}
}
