package main

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucksec/polyship/internal/config"
)

// providerNames 返回内置平台和 workDir 项目配置中声明的平台名称
func (a *app) providerNames(workDir string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	if cfg, _, err := config.LoadProject(workDir); err == nil {
		for _, name := range cfg.ProviderNames() {
			add(name)
		}
	}
	for _, name := range a.registry.Names() {
		add(name)
	}
	sort.Strings(names)
	return names
}

// completeProviders 补全平台名称
func completeProviders(a *app) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var completions []string
		for _, name := range a.providerNames(a.workDir) {
			if strings.HasPrefix(name, toComplete) {
				completions = append(completions, name)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// setupCompletion 设置自动补全命令
func setupCompletion(rootCmd *cobra.Command, a *app) {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "生成自动补全脚本",
		Long: `生成指定 shell 的自动补全脚本。

支持的 shell: bash, zsh, fish, powershell

Bash:
  $ source <(polyship completion bash)

Zsh:
  $ source <(polyship completion zsh)

Fish:
  $ polyship completion fish > ~/.config/fish/completions/polyship.fish

PowerShell:
  $ polyship completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(a.out)
			case "zsh":
				return rootCmd.GenZshCompletion(a.out)
			case "fish":
				return rootCmd.GenFishCompletion(a.out, true)
			default:
				return rootCmd.GenPowerShellCompletion(a.out)
			}
		},
	}

	// cobra 自带的 completion 命令由上面的命令替代
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
