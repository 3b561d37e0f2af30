package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucksec/polyship/internal/domain"
)

// ManifestRepository 部署清单仓库接口
type ManifestRepository interface {
	// Save 将清单写入产物目录，覆盖已有清单
	Save(artifactDir string, manifest *domain.DeployManifest) error

	// Load 读取产物目录中的清单
	Load(artifactDir string) (*domain.DeployManifest, error)

	// Path 返回清单文件路径
	Path(artifactDir string) string
}

// manifestRepository 基于文件的清单仓库实现
type manifestRepository struct{}

// NewManifestRepository 创建清单仓库实例
func NewManifestRepository() ManifestRepository {
	return &manifestRepository{}
}

// Path 返回清单文件路径
func (r *manifestRepository) Path(artifactDir string) string {
	return filepath.Join(artifactDir, domain.ManifestFileName)
}

// Save 将清单写入产物目录
// 先写临时文件再重命名，目录中始终只有一个完整的清单
func (r *manifestRepository) Save(artifactDir string, manifest *domain.DeployManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: 序列化清单: %v", domain.ErrManifestWriteFailed, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return fmt.Errorf("%w: 创建目录 %s: %v", domain.ErrManifestWriteFailed, artifactDir, err)
	}

	tmp, err := os.CreateTemp(artifactDir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("%w: 创建临时文件: %v", domain.ErrManifestWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: 写入 %s: %v", domain.ErrManifestWriteFailed, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: 关闭 %s: %v", domain.ErrManifestWriteFailed, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrManifestWriteFailed, err)
	}

	if err := os.Rename(tmpPath, r.Path(artifactDir)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrManifestWriteFailed, err)
	}
	return nil
}

// Load 读取产物目录中的清单
func (r *manifestRepository) Load(artifactDir string) (*domain.DeployManifest, error) {
	data, err := os.ReadFile(r.Path(artifactDir))
	if err != nil {
		return nil, fmt.Errorf("读取部署清单失败: %w", err)
	}

	var manifest domain.DeployManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("解析部署清单失败: %w", err)
	}
	return &manifest, nil
}
