package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucksec/polyship/internal/domain"
)

// PackageRepository 包描述文件仓库接口
type PackageRepository interface {
	// Load 读取项目根目录的 package.json
	// 文件不存在时返回 domain.ErrPackageDescriptorMissing
	Load(projectDir string) (*domain.PackageDescriptor, error)

	// SavePruned 将裁剪后的描述文件写入产物目录，返回文件路径
	SavePruned(artifactDir string, descriptor *domain.PrunedDescriptor) (string, error)
}

// packageRepository 基于文件的实现
type packageRepository struct{}

// NewPackageRepository 创建包描述文件仓库实例
func NewPackageRepository() PackageRepository {
	return &packageRepository{}
}

// Load 读取项目根目录的 package.json
func (r *packageRepository) Load(projectDir string) (*domain.PackageDescriptor, error) {
	path := filepath.Join(projectDir, domain.PackageFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPackageDescriptorMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}

	var descriptor domain.PackageDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return &descriptor, nil
}

// SavePruned 将裁剪后的描述文件写入产物目录
func (r *packageRepository) SavePruned(artifactDir string, descriptor *domain.PrunedDescriptor) (string, error) {
	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化 package.json 失败: %w", err)
	}

	path := filepath.Join(artifactDir, domain.PackageFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("%w: 写入 %s: %v", domain.ErrCopyFailed, path, err)
	}
	return path, nil
}
