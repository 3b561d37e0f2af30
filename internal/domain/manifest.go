package domain

import "time"

// ManifestFileName 产物目录中清单文件的名称
const ManifestFileName = "manifest.json"

// DeployManifest 记录某个产物目录当前由哪个提供方的构建占用
type DeployManifest struct {
	Provider string    `json:"provider"` // 提供方
	BuiltAt  time.Time `json:"builtAt"`  // 构建时间
	Artifact string    `json:"artifact"` // 入口产物路径（相对于工作目录）
	BuildID  string    `json:"buildId"`  // 构建 UUID
}

// PackageResult 打包阶段的输出
type PackageResult struct {
	ArtifactDir    string   // 产物目录
	EntryFile      string   // 规范入口文件（绝对路径）
	DescriptorPath string   // 裁剪后的 package.json，未生成时为空
	ContainerFile  string   // 容器描述文件，未生成时为空
	IgnoreFile     string   // 容器忽略文件，未生成时为空
	FrameworkRef   string   // 框架依赖的本地引用（file:...），未解析时为空
	Transient      []string // 仅为本次部署创建的临时文件
}
