package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// hclProjectFile HCL 项目配置的顶层结构
//
//	name             = "shop"
//	default_provider = lower(lookup(env, "POLYSHIP_PROVIDER", "local"))
//
//	provider "local" {
//	  entry = "src/local.ts"
//	}
//
//	build {
//	  out_dir = "dist"
//	}
type hclProjectFile struct {
	Name            string        `hcl:"name,optional"`
	AppEntry        string        `hcl:"app_entry,optional"`
	DefaultProvider string        `hcl:"default_provider,optional"`
	Providers       []hclProvider `hcl:"provider,block"`
	Dev             *hclDev       `hcl:"dev,block"`
	Build           *hclBuild     `hcl:"build,block"`
	Deploy          *hclDeploy    `hcl:"deploy,block"`
}

type hclProvider struct {
	Name  string `hcl:"name,label"`
	Entry string `hcl:"entry,optional"`
}

type hclDev struct {
	Port       int      `hcl:"port,optional"`
	WatchPaths []string `hcl:"watch_paths,optional"`
	Tsconfig   string   `hcl:"tsconfig,optional"`
}

type hclBuild struct {
	OutDir       string `hcl:"out_dir,optional"`
	TsconfigPath string `hcl:"tsconfig_path,optional"`
}

type hclDeploy struct {
	ArtifactDir string `hcl:"artifact_dir,optional"`
}

// sandboxFunctions HCL 表达式可调用的函数，只包含纯函数
func sandboxFunctions() map[string]function.Function {
	return map[string]function.Function{
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"join":     stdlib.JoinFunc,
		"format":   stdlib.FormatFunc,
		"coalesce": stdlib.CoalesceFunc,
		"concat":   stdlib.ConcatFunc,
		"lookup":   stdlib.LookupFunc,
	}
}

// evalContext 构造受限的求值上下文：只读的 env 变量和固定的函数表
// 表达式无法读写文件或访问网络
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || !hcl.ValidIdentifier(key) {
			continue
		}
		vars[key] = cty.StringVal(value)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
		Functions: sandboxFunctions(),
	}
}

// ParseHCLProject 解析并在沙箱中求值 HCL 格式的项目配置
func ParseHCLProject(path string, data []byte, environ []string) (*domain.ProjectConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrConfigParse, path, diags.Error())
	}

	var root hclProjectFile
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrConfigParse, path, diags.Error())
	}

	cfg := &domain.ProjectConfig{
		Name:            root.Name,
		AppEntry:        root.AppEntry,
		DefaultProvider: root.DefaultProvider,
		Providers:       make(map[string]domain.ProviderConfig, len(root.Providers)),
	}
	for _, p := range root.Providers {
		if _, dup := cfg.Providers[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s: provider %q 重复定义", domain.ErrConfigParse, path, p.Name)
		}
		cfg.Providers[p.Name] = domain.ProviderConfig{Entry: p.Entry}
		cfg.ProviderOrder = append(cfg.ProviderOrder, p.Name)
	}
	if root.Dev != nil {
		cfg.Dev = domain.DevConfig{
			Port:       root.Dev.Port,
			WatchPaths: root.Dev.WatchPaths,
			Tsconfig:   root.Dev.Tsconfig,
		}
	}
	if root.Build != nil {
		cfg.Build = domain.BuildConfig{
			OutDir:       root.Build.OutDir,
			TsconfigPath: root.Build.TsconfigPath,
		}
	}
	if root.Deploy != nil {
		cfg.Deploy = &domain.DeployConfig{ArtifactDir: root.Deploy.ArtifactDir}
	}

	return cfg, nil
}
