package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucksec/polyship/internal/profile"
)

// profileCmd profile 管理命令组
func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "管理各平台默认的项目和区域",
		Long: `管理远程部署使用的默认项目 ID 和区域，保存在 [profile.<provider>] 段中。

优先级: 命令行参数 > 环境变量 > profile`,
	}

	cmd.AddCommand(listProfilesCmd(a))
	cmd.AddCommand(setProfileCmd(a, os.Stdin))
	cmd.AddCommand(getProfileCmd(a))
	cmd.AddCommand(removeProfileCmd(a))
	return cmd
}

// listProfilesCmd 列出已保存的 profile
func listProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出已保存的 profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			providers := a.profiles.List()
			if len(providers) == 0 {
				fmt.Fprintln(a.out, "未保存任何 profile")
				fmt.Fprintln(a.out, "\n提示: 使用 'polyship profile set <provider>' 保存")
				return nil
			}

			for _, provider := range providers {
				p, err := a.profiles.Get(provider)
				if err != nil {
					fmt.Fprintf(a.out, "  %s: 读取失败 - %v\n", provider, err)
					continue
				}
				printProfile(a.out, provider, p)
			}
			return nil
		},
	}
}

// setProfileCmd 保存 profile，未通过参数提供时交互式输入
func setProfileCmd(a *app, in io.Reader) *cobra.Command {
	var project, region string

	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "保存 profile",
		Example: `  # 交互式输入
  polyship profile set cloudrun

  # 通过参数设置
  polyship profile set cloudrun --project acme-prod --region asia-east1`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeProviders(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]

			if project == "" && region == "" {
				reader := bufio.NewReader(in)
				project = ask(a.out, reader, "项目 ID: ")
				region = ask(a.out, reader, "区域: ")
			}
			if project == "" && region == "" {
				return fmt.Errorf("项目 ID 和区域不能同时为空")
			}

			if err := a.profiles.Set(provider, &profile.Profile{Project: project, Region: region}); err != nil {
				return fmt.Errorf("保存 profile 失败: %w", err)
			}
			fmt.Fprintf(a.out, "%s 的 profile 已保存到 %s\n", provider, a.profilePath())
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "云项目 ID")
	cmd.Flags().StringVarP(&region, "region", "r", "", "区域")
	return cmd
}

// getProfileCmd 显示 profile 以及当前实际生效的值
func getProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "get <provider>",
		Short:             "显示 profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeProviders(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			p, err := a.profiles.Get(provider)
			if err != nil {
				return err
			}
			printProfile(a.out, provider, p)

			effective := a.profiles.Resolve(provider, "", "")
			if effective != *p {
				fmt.Fprintf(a.out, "  生效值（含环境变量）: project=%s, region=%s\n", effective.Project, effective.Region)
			}
			return nil
		},
	}
}

// removeProfileCmd 删除 profile
func removeProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "remove <provider>",
		Short:             "删除 profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeProviders(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.profiles.Remove(args[0]); err != nil {
				return fmt.Errorf("删除 profile 失败: %w", err)
			}
			fmt.Fprintf(a.out, "%s 的 profile 已删除\n", args[0])
			return nil
		},
	}
}

func printProfile(w io.Writer, provider string, p *profile.Profile) {
	fmt.Fprintf(w, "%s:\n", provider)
	if p.Project != "" {
		fmt.Fprintf(w, "  Project: %s\n", p.Project)
	}
	if p.Region != "" {
		fmt.Fprintf(w, "  Region: %s\n", p.Region)
	}
}

// ask 输出提示并读取一行输入
func ask(w io.Writer, r *bufio.Reader, label string) string {
	fmt.Fprint(w, label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
