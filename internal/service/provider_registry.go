package service

import (
	"sort"
	"sync"
)

// PackagingStrategy 产物打包方式
type PackagingStrategy int

const (
	// PackagePlain 仅执行通用步骤：复制编译产物、规范入口、裁剪包描述
	PackagePlain PackagingStrategy = iota
	// PackageContainer 额外生成容器描述文件和忽略文件
	PackageContainer
)

// ProviderSpec 提供方的打包与部署能力
type ProviderSpec struct {
	Name      string            // 提供方名称
	Packaging PackagingStrategy // 打包方式
	Framework FrameworkMode     // 框架依赖的引用方式
	// TransientFramework 框架归档只为本次部署生成，部署结束后删除
	TransientFramework bool
	// Remote 是否有远程部署驱动
	Remote bool
}

// ProviderRegistry 提供方注册表，未注册的名称按普通打包处理
type ProviderRegistry struct {
	mu    sync.RWMutex
	specs map[string]ProviderSpec
}

// NewProviderRegistry 创建空注册表
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{specs: make(map[string]ProviderSpec)}
}

// DefaultProviderRegistry 创建包含内置提供方的注册表
func DefaultProviderRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.Register(ProviderSpec{
		Name:      "local",
		Packaging: PackagePlain,
		Framework: FrameworkDirectory,
	})
	r.Register(ProviderSpec{
		Name:               "cloudrun",
		Packaging:          PackageContainer,
		Framework:          FrameworkArchive,
		TransientFramework: true,
		Remote:             true,
	})
	r.Register(ProviderSpec{
		Name:      "kubernetes",
		Packaging: PackageContainer,
		Framework: FrameworkArchive,
	})
	return r
}

// Register 注册或替换提供方
func (r *ProviderRegistry) Register(spec ProviderSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
}

// Lookup 查找提供方，未注册时返回普通打包、无远程驱动的描述
func (r *ProviderRegistry) Lookup(name string) ProviderSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if spec, ok := r.specs[name]; ok {
		return spec
	}
	return ProviderSpec{Name: name, Packaging: PackagePlain, Framework: FrameworkDirectory}
}

// Registered 是否为已注册的提供方
func (r *ProviderRegistry) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[name]
	return ok
}

// Names 返回所有已注册的提供方名称（排序后）
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
