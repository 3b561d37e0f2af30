package domain

// PackageFileName 包描述文件名
const PackageFileName = "package.json"

// PackageDescriptor 项目根目录 package.json 中打包需要的字段
type PackageDescriptor struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Type            string            `json:"type,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// IsModule 项目是否声明为 ES 模块
func (p *PackageDescriptor) IsModule() bool {
	return p != nil && p.Type == "module"
}

// PrunedDescriptor 写入产物目录的裁剪版 package.json
// 字段顺序即输出顺序
type PrunedDescriptor struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private"`
	Type         string            `json:"type,omitempty"`
	Scripts      map[string]string `json:"scripts"`
	Dependencies map[string]string `json:"dependencies"`
}
