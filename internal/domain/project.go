package domain

// ProjectConfig 表示项目的声明式构建配置
// 每次调用只加载一次，构建期间不可修改
type ProjectConfig struct {
	Name            string                    `json:"name"`            // 项目名称
	AppEntry        string                    `json:"appEntry"`        // 应用根模块路径
	DefaultProvider string                    `json:"defaultProvider"` // 默认运行时提供方
	Providers       map[string]ProviderConfig `json:"providers"`       // 各提供方入口文件
	ProviderOrder   []string                  `json:"-"`               // 提供方声明顺序
	Dev             DevConfig                 `json:"dev"`             // 开发模式配置
	Build           BuildConfig               `json:"build"`           // 构建配置
	Deploy          *DeployConfig             `json:"deploy"`          // 部署配置（可选）
}

// ProviderConfig 单个提供方的配置
type ProviderConfig struct {
	Entry string `json:"entry"` // 入口文件路径
}

// DevConfig 开发模式配置
type DevConfig struct {
	Port       int      `json:"port"`
	WatchPaths []string `json:"watchPaths"`
	Tsconfig   string   `json:"tsconfig"`
}

// BuildConfig 构建配置
type BuildConfig struct {
	OutDir       string `json:"outDir"`       // 编译输出目录
	TsconfigPath string `json:"tsconfigPath"` // 编译器配置文件路径
}

// DeployConfig 部署配置
type DeployConfig struct {
	ArtifactDir string `json:"artifactDir"` // 部署产物根目录
}

// FirstProvider 返回第一个声明的提供方名称，没有则返回空字符串
func (c *ProjectConfig) FirstProvider() string {
	if len(c.ProviderOrder) > 0 {
		return c.ProviderOrder[0]
	}
	return ""
}

// ProviderNames 按声明顺序返回所有提供方名称
func (c *ProjectConfig) ProviderNames() []string {
	names := make([]string, len(c.ProviderOrder))
	copy(names, c.ProviderOrder)
	return names
}

// BuildPlan 由配置解析得到的具体编译计划（不持久化）
type BuildPlan struct {
	WorkDir      string // 调用时的工作目录（绝对路径）
	Provider     string // 选定的提供方
	EntryPath    string // 源入口文件（绝对路径）
	OutDir       string // 编译输出目录（绝对路径）
	TsconfigPath string // 编译器配置文件（绝对路径）
	ArtifactDir  string // 部署产物目录（绝对路径）
}

// BuildResult 编译与打包的结果
type BuildResult struct {
	Provider           string // 提供方
	OutDir             string // 编译输出目录
	EntrypointArtifact string // 编译后可运行的入口文件（绝对路径）
	ManifestDir        string // 默认产物目录
}
