package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucksec/polyship/internal/domain"
)

// ProjectFileNames 项目配置文件候选名，按优先级排列
// 静态数据格式在前，可编程格式（HCL）在后
var ProjectFileNames = []string{
	"polyship.config.json",
	".polyshiprc.json",
	"polyship.config.hcl",
}

// FindProjectFile 在工作目录中查找第一个存在的项目配置文件
func FindProjectFile(workDir string) (string, error) {
	for _, name := range ProjectFileNames {
		path := filepath.Join(workDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: 在 %s 中查找 %v", domain.ErrConfigNotFound, workDir, ProjectFileNames)
}

// LoadProject 查找并解析项目配置，返回配置及其文件路径
func LoadProject(workDir string) (*domain.ProjectConfig, string, error) {
	path, err := FindProjectFile(workDir)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: 读取 %s: %v", domain.ErrConfigParse, path, err)
	}

	var cfg *domain.ProjectConfig
	if filepath.Ext(path) == ".hcl" {
		cfg, err = ParseHCLProject(path, data, os.Environ())
	} else {
		cfg, err = ParseJSONProject(path, data)
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// ParseJSONProject 解析 JSON 格式的项目配置，顶层必须是对象
func ParseJSONProject(path string, data []byte) (*domain.ProjectConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: %s 的顶层不是对象", domain.ErrConfigParse, path)
	}

	var cfg domain.ProjectConfig
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfigParse, path, err)
	}

	order, err := jsonProviderOrder(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfigParse, path, err)
	}
	cfg.ProviderOrder = order
	if cfg.Providers == nil {
		cfg.Providers = map[string]domain.ProviderConfig{}
	}

	return &cfg, nil
}

// jsonProviderOrder 读取 providers 对象中键的声明顺序
func jsonProviderOrder(data []byte) ([]string, error) {
	var raw struct {
		Providers json.RawMessage `json:"providers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Providers) == 0 || string(raw.Providers) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Providers))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var order []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("providers 的键不是字符串: %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}
	return order, nil
}
