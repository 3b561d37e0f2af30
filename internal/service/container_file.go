package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucksec/polyship/internal"
)

// 容器描述文件和忽略文件的名称
const (
	ContainerFileName = "Dockerfile"
	IgnoreFileName    = ".dockerignore"
)

// ContainerSpec 生成容器描述文件所需的信息
type ContainerSpec struct {
	BaseImage  string // 基础镜像
	WorkDir    string // 容器内工作目录
	Port       int    // 监听端口
	Entry      string // 规范入口文件名，相对于工作目录
	Descriptor string // 包描述文件名，为空时不单独复制
	Archive    string // 框架归档文件名，为空时不单独复制
}

// DefaultContainerSpec 返回使用默认镜像和端口的描述
func DefaultContainerSpec(entry string) ContainerSpec {
	return ContainerSpec{
		BaseImage: internal.NodeImage,
		WorkDir:   "/app",
		Port:      internal.ListenPort,
		Entry:     entry,
	}
}

// RenderContainerFile 生成 Dockerfile 内容
func RenderContainerFile(spec ContainerSpec) string {
	var b strings.Builder
	b.WriteString("FROM " + spec.BaseImage + "\n")
	b.WriteString("WORKDIR " + spec.WorkDir + "\n\n")

	// 先复制包描述和框架归档，依赖安装层可以被缓存
	var deps []string
	if spec.Descriptor != "" {
		deps = append(deps, spec.Descriptor)
	}
	if spec.Archive != "" {
		deps = append(deps, spec.Archive)
	}
	if len(deps) > 0 {
		b.WriteString("COPY " + strings.Join(deps, " ") + " ./\n")
		b.WriteString("RUN npm install --omit=dev\n\n")
	}

	b.WriteString("COPY . ./\n")
	b.WriteString("ENV NODE_ENV=production\n")
	b.WriteString(fmt.Sprintf("ENV PORT=%d\n", spec.Port))
	b.WriteString(fmt.Sprintf("EXPOSE %d\n", spec.Port))

	cmd, _ := json.Marshal([]string{"node", spec.Entry})
	b.WriteString("CMD " + string(cmd) + "\n")
	return b.String()
}

// RenderIgnoreFile 生成 .dockerignore 内容
func RenderIgnoreFile() string {
	return strings.Join([]string{
		ContainerFileName,
		IgnoreFileName,
		"node_modules",
		"npm-debug.log",
	}, "\n") + "\n"
}

// ContainerEntry 从 Dockerfile 的最后一条 CMD 中读取 node 启动的入口文件
func ContainerEntry(content string) (string, error) {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "CMD ") {
			last = strings.TrimSpace(strings.TrimPrefix(line, "CMD "))
		}
	}
	if last == "" {
		return "", fmt.Errorf("Dockerfile 中没有 CMD 指令")
	}

	var argv []string
	if err := json.Unmarshal([]byte(last), &argv); err != nil {
		return "", fmt.Errorf("无法解析 CMD %s: %w", strconv.Quote(last), err)
	}
	if len(argv) < 2 || argv[0] != "node" {
		return "", fmt.Errorf("CMD 不是 node 启动命令: %v", argv)
	}
	return argv[1], nil
}

// ContainerPort 从 Dockerfile 的 EXPOSE 指令中读取端口
func ContainerPort(content string) (int, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "EXPOSE ") {
			return strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "EXPOSE ")))
		}
	}
	return 0, fmt.Errorf("Dockerfile 中没有 EXPOSE 指令")
}
