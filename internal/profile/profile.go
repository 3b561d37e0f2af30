package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// sectionPrefix INI 中 profile 段的前缀，如 [profile.cloudrun]
const sectionPrefix = "profile."

// Profile 某个提供方的默认部署目标
type Profile struct {
	Project string // 云项目 ID
	Region  string // 区域
}

// envFallback 提供方对应的环境变量，每项按优先级排列
type envFallback struct {
	project []string
	region  []string
}

// envFallbacks 提供方前缀形式在前，SDK 安装器前缀形式在后
var envFallbacks = map[string]envFallback{
	"cloudrun": {
		project: []string{"GOOGLE_CLOUD_PROJECT", "CLOUDSDK_CORE_PROJECT"},
		region:  []string{"GOOGLE_CLOUD_REGION", "CLOUDSDK_RUN_REGION"},
	},
}

// Manager profile 管理器接口
type Manager interface {
	// Get 获取配置文件中保存的 profile
	Get(provider string) (*Profile, error)

	// Set 保存 profile
	Set(provider string, p *Profile) error

	// Remove 删除 profile
	Remove(provider string) error

	// List 列出已保存 profile 的提供方
	List() []string

	// Resolve 按 显式值 > 环境变量 > 配置文件 的顺序解析部署目标
	Resolve(provider, project, region string) Profile
}

// manager profile 管理器实现
type manager struct {
	path     string
	mu       sync.RWMutex
	profiles map[string]*Profile
	getenv   func(string) string
}

// NewManager 创建 profile 管理器，path 不存在时视为空配置
func NewManager(path string) (Manager, error) {
	m := &manager{
		path:     path,
		profiles: make(map[string]*Profile),
		getenv:   os.Getenv,
	}
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("加载 profile 失败: %w", err)
	}
	return m, nil
}

// load 从配置文件加载 profile
func (m *manager) load() error {
	if m.path == "" {
		return nil
	}
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return nil
	}

	cfg, err := ini.Load(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, section := range cfg.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, sectionPrefix) {
			continue
		}
		provider := strings.TrimPrefix(name, sectionPrefix)
		m.profiles[provider] = &Profile{
			Project: section.Key("project").String(),
			Region:  section.Key("region").String(),
		}
	}
	return nil
}

// Get 获取配置文件中保存的 profile
func (m *manager) Get(provider string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[provider]
	if !ok {
		return nil, fmt.Errorf("未找到 %s 的 profile", provider)
	}
	copied := *p
	return &copied, nil
}

// Set 保存 profile
func (m *manager) Set(provider string, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *p
	m.profiles[provider] = &copied
	return m.save()
}

// Remove 删除 profile
func (m *manager) Remove(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[provider]; !ok {
		return fmt.Errorf("未找到 %s 的 profile", provider)
	}
	delete(m.profiles, provider)
	return m.save()
}

// List 列出已保存 profile 的提供方，按名称排序
func (m *manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providers := make([]string, 0, len(m.profiles))
	for provider := range m.profiles {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}

// Resolve 按 显式值 > 环境变量 > 配置文件 的顺序解析部署目标
func (m *manager) Resolve(provider, project, region string) Profile {
	resolved := Profile{Project: project, Region: region}

	fallback := envFallbacks[provider]
	if resolved.Project == "" {
		resolved.Project = m.firstEnv(fallback.project)
	}
	if resolved.Region == "" {
		resolved.Region = m.firstEnv(fallback.region)
	}

	m.mu.RLock()
	saved, ok := m.profiles[provider]
	m.mu.RUnlock()
	if ok {
		if resolved.Project == "" {
			resolved.Project = saved.Project
		}
		if resolved.Region == "" {
			resolved.Region = saved.Region
		}
	}
	return resolved
}

// firstEnv 返回第一个非空的环境变量值
func (m *manager) firstEnv(keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(m.getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// save 保存 profile 到配置文件，保留文件中的其他段
func (m *manager) save() error {
	if m.path == "" {
		return fmt.Errorf("未指定 profile 配置文件路径")
	}

	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	// 已有文件无法解析时不覆盖，避免丢失其他配置段
	cfg := ini.Empty()
	if _, err := os.Stat(m.path); err == nil {
		loaded, err := ini.Load(m.path)
		if err != nil {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
		cfg = loaded
	}

	// 先清除旧的 profile 段，再写入内存中的状态
	for _, section := range cfg.Sections() {
		if strings.HasPrefix(section.Name(), sectionPrefix) {
			cfg.DeleteSection(section.Name())
		}
	}
	for provider, p := range m.profiles {
		section := cfg.Section(sectionPrefix + provider)
		if p.Project != "" {
			section.Key("project").SetValue(p.Project)
		}
		if p.Region != "" {
			section.Key("region").SetValue(p.Region)
		}
	}

	return cfg.SaveTo(m.path)
}
