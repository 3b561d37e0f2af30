package main

import (
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lucksec/polyship/internal"
)

// console 交互式控制台
// 使用 go-prompt 提供带 Tab 补全的 REPL，每行输入按普通命令行执行
type console struct {
	app      *app
	workDir  string // 进入控制台时的 --cwd
	logLevel string // 进入控制台时的 --log-level
}

// newConsoleCmd 创建控制台命令
func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台，使用与命令行相同的命令。

进入控制台后，可使用命令:
  help                         显示帮助
  build [--provider ...]       编译
  deploy [--provider ...]      编译、打包并部署
  remove [provider]            删除远程服务
  status [provider]            查看部署清单
  profile list|set|get|remove  管理 profile
  exit / quit                  退出控制台`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &console{
				app:      a,
				workDir:  a.workDir,
				logLevel: a.logLevel,
			}
			return c.run()
		},
	}
}

// run 启动交互式控制台主循环
func (c *console) run() error {
	c.printWelcome()

	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix(internal.Name+"> "),
		prompt.OptionTitle(internal.Name+" console"),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)

	// Run 会阻塞，直到用户退出（Ctrl+D）
	p.Run()
	fmt.Fprintln(c.app.out, "\n已退出控制台。")
	return nil
}

// executor 执行单行命令
func (c *console) executor(in string) {
	parts := strings.Fields(in)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return
	case "exit", "quit", "q":
		fmt.Fprintln(c.app.out, "退出控制台。")
		os.Exit(0)
	case "console":
		fmt.Fprintln(c.app.out, "已在控制台中。")
		return
	}

	run(c.app, c.lineArgs(parts))
}

// lineArgs 为每行命令补上进入控制台时的全局参数，行内参数优先
func (c *console) lineArgs(parts []string) []string {
	var args []string
	if c.workDir != "" {
		args = append(args, "--cwd", c.workDir)
	}
	if c.logLevel != "" {
		args = append(args, "--log-level", c.logLevel)
	}
	return append(args, parts...)
}

// completer 根据命令树提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)

	current := ""
	if len(parts) > 0 && !strings.HasSuffix(text, " ") {
		current = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	// 新建的根命令会重置 --cwd 绑定的字段
	root := newRootCmd(c.app)
	c.app.workDir = c.workDir
	if len(parts) == 0 {
		return prompt.FilterHasPrefix(c.topLevelSuggestions(root), current, true)
	}

	cmd, rest, err := root.Find(parts)
	if err != nil || cmd == root {
		return nil
	}

	// 平台名称：--provider 的值或第一个位置参数
	if len(rest) > 0 && rest[len(rest)-1] == "--provider" ||
		(!strings.HasPrefix(current, "-") && cmd.ValidArgsFunction != nil && positional(rest) == 0) {
		return prompt.FilterHasPrefix(c.providerSuggestions(), current, true)
	}

	if strings.HasPrefix(current, "-") {
		return prompt.FilterHasPrefix(flagSuggestions(cmd), current, true)
	}

	var subs []prompt.Suggest
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, prompt.Suggest{Text: sub.Name(), Description: sub.Short})
		}
	}
	return prompt.FilterHasPrefix(subs, current, true)
}

// topLevelSuggestions 顶级命令补全
func (c *console) topLevelSuggestions(root *cobra.Command) []prompt.Suggest {
	suggestions := []prompt.Suggest{{Text: "help", Description: "显示帮助"}}
	for _, cmd := range root.Commands() {
		if !cmd.IsAvailableCommand() || cmd.Name() == "console" {
			continue
		}
		suggestions = append(suggestions, prompt.Suggest{Text: cmd.Name(), Description: cmd.Short})
	}
	return append(suggestions,
		prompt.Suggest{Text: "exit", Description: "退出控制台"},
		prompt.Suggest{Text: "quit", Description: "退出控制台"},
	)
}

// providerSuggestions 平台名称补全
func (c *console) providerSuggestions() []prompt.Suggest {
	var suggestions []prompt.Suggest
	for _, name := range c.app.providerNames(c.workDir) {
		desc := "项目配置中声明"
		if c.app.registry.Registered(name) {
			spec := c.app.registry.Lookup(name)
			desc = "内置平台"
			if spec.Remote {
				desc = "内置平台（支持远程部署）"
			}
		}
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: desc})
	}
	return suggestions
}

// flagSuggestions 命令的标志补全
func flagSuggestions(cmd *cobra.Command) []prompt.Suggest {
	var suggestions []prompt.Suggest
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		suggestions = append(suggestions, prompt.Suggest{Text: "--" + f.Name, Description: f.Usage})
	})
	return suggestions
}

// positional 统计已输入的位置参数个数（粗略跳过标志及其值）
func positional(args []string) int {
	n := 0
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") {
				i++
			}
			continue
		}
		n++
	}
	return n
}

// printWelcome 打印欢迎信息
func (c *console) printWelcome() {
	fmt.Fprintf(c.app.out, "%s %s 交互式控制台\n\n", internal.Name, internal.Version())
	fmt.Fprintln(c.app.out, "提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")
	fmt.Fprintln(c.app.out, "      按 Tab 键自动补全命令和参数")
	fmt.Fprintln(c.app.out)
}

// printHelp 打印控制台内可用命令帮助
func (c *console) printHelp() {
	w := c.app.out
	fmt.Fprintln(w, "可用命令:")
	fmt.Fprintln(w, "  help                          显示本帮助")
	fmt.Fprintln(w, "  exit | quit                   退出控制台")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  build [--provider] [--entry] [--outDir]")
	fmt.Fprintln(w, "                                编译并输出入口文件路径")
	fmt.Fprintln(w, "  deploy [--provider] [--name] [--region] ...")
	fmt.Fprintln(w, "                                编译、打包、写入清单并部署")
	fmt.Fprintln(w, "  remove [provider] [--name]    删除远程服务")
	fmt.Fprintln(w, "  status [provider]             查看部署清单")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  profile list                  列出已保存的 profile")
	fmt.Fprintln(w, "  profile set <provider>        保存 profile")
	fmt.Fprintln(w, "  profile get <provider>        显示 profile")
	fmt.Fprintln(w, "  profile remove <provider>     删除 profile")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "提示: 命令与 CLI 保持一致，可以在命令后加 --help 查看参数。")
}
