package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucksec/polyship/internal"
	"github.com/lucksec/polyship/internal/domain"
	"github.com/lucksec/polyship/internal/service"
)

// addBuildFlags 注册 build 和 deploy 共用的编译参数
func addBuildFlags(cmd *cobra.Command, a *app, o *service.BuildOverrides) {
	cmd.Flags().StringVar(&o.Provider, "provider", "", "运行平台（local, cloudrun, kubernetes 或自定义名称）")
	cmd.Flags().StringVar(&o.Entry, "entry", "", "入口文件，覆盖项目配置")
	cmd.Flags().StringVar(&o.OutDir, "outDir", "", "编译输出目录（默认 dist）")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeProviders(a))
}

// buildCmd 编译命令
func buildCmd(a *app) *cobra.Command {
	var overrides service.BuildOverrides

	cmd := &cobra.Command{
		Use:   "build",
		Short: "编译项目并输出入口文件路径",
		Example: `  # 使用项目配置中的默认平台
  polyship build

  # 指定平台和入口
  polyship build --provider cloudrun --entry src/server.ts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.pipeline.Build(context.Background(), a.workDir, overrides)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, result.EntrypointArtifact)
			return nil
		},
	}
	addBuildFlags(cmd, a, &overrides)
	return cmd
}

// deployCmd 部署命令
func deployCmd(a *app) *cobra.Command {
	var (
		overrides    service.BuildOverrides
		opts         domain.RemoteDeployOptions
		minInstances int
		maxInstances int
		concurrency  int
		continueFail bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "编译、打包并部署项目",
		Long: `编译项目并打包到 deploy/<provider> 目录，写入 manifest.json。
平台为 cloudrun 时，使用 gcloud run deploy 部署产物目录。

服务名称依次取自 --name、环境变量 ` + internal.ServiceNameEnv + `、package.json 的 name。
项目和区域未指定时依次读取 GOOGLE_CLOUD_PROJECT / CLOUDSDK_CORE_PROJECT、
GOOGLE_CLOUD_REGION / CLOUDSDK_RUN_REGION 和已保存的 profile。`,
		Example: `  polyship deploy --provider cloudrun --region asia-east1 --memory 512Mi --timeout 300s`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("minInstances") {
				opts.MinInstances = &minInstances
			}
			if flags.Changed("maxInstances") {
				opts.MaxInstances = &maxInstances
			}
			if flags.Changed("concurrency") {
				opts.Concurrency = &concurrency
			}
			if !flags.Changed("continue-on-remote-failure") {
				continueFail = a.settings.Deploy.ContinueOnRemoteFailure
			}

			report, err := a.pipeline.Deploy(context.Background(), a.workDir, service.DeployRequest{
				Overrides:               overrides,
				Remote:                  opts,
				ContinueOnRemoteFailure: continueFail,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "产物目录: %s\n", report.Package.ArtifactDir)
			fmt.Fprintf(a.out, "入口文件: %s\n", report.Package.EntryFile)
			fmt.Fprintf(a.out, "构建 ID: %s\n", report.Manifest.BuildID)
			switch {
			case report.RemoteErr != nil:
				fmt.Fprintf(a.errOut, "远程部署失败: %v\n", report.RemoteErr)
			case report.Remote != nil:
				fmt.Fprintf(a.out, "远程部署完成: %s\n", report.Remote.State)
			}
			return nil
		},
	}

	addBuildFlags(cmd, a, &overrides)
	flags := cmd.Flags()
	flags.StringVar(&opts.Name, "name", "", "远程服务名称")
	flags.StringVar(&opts.Project, "project", "", "云项目 ID")
	flags.StringVar(&opts.Region, "region", "", "区域")
	flags.IntVar(&minInstances, "minInstances", 0, "最小实例数")
	flags.IntVar(&maxInstances, "maxInstances", 0, "最大实例数")
	flags.IntVar(&concurrency, "concurrency", 0, "单实例并发请求数")
	flags.StringVar(&opts.Timeout, "timeout", "", "请求超时，如 300s、5m、1h")
	flags.StringVar(&opts.CPU, "cpu", "", "CPU 数量")
	flags.StringVar(&opts.Memory, "memory", "", "内存大小，如 512Mi、2Gi")
	flags.BoolVar(&continueFail, "continue-on-remote-failure", true, "远程部署失败时仍以 0 退出（默认取自 [deploy] 配置）")
	return cmd
}

// removeCmd 删除远程服务命令
func removeCmd(a *app) *cobra.Command {
	var (
		provider string
		opts     domain.RemoteRemoveOptions
	)

	cmd := &cobra.Command{
		Use:               "remove [provider]",
		Short:             "删除远程服务",
		Example:           `  polyship remove cloudrun --name shop --region asia-east1`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProviders(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && provider == "" {
				provider = args[0]
			}
			outcome, err := a.pipeline.Remove(context.Background(), a.workDir, service.RemoveRequest{
				Provider: provider,
				Remote:   opts,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "远程服务已删除（%s）\n", outcome.State)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&provider, "provider", "", "运行平台")
	flags.StringVar(&opts.Name, "name", "", "远程服务名称")
	flags.StringVar(&opts.Project, "project", "", "云项目 ID")
	flags.StringVar(&opts.Region, "region", "", "区域")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeProviders(a))
	return cmd
}

// statusCmd 查看部署清单命令
func statusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "status [provider]",
		Short:             "查看平台产物目录中的部署清单",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProviders(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := ""
			if len(args) == 1 {
				provider = args[0]
			}
			manifest, err := a.pipeline.Status(context.Background(), a.workDir, provider)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "平台:     %s\n", manifest.Provider)
			fmt.Fprintf(a.out, "构建时间: %s\n", manifest.BuiltAt.Format(time.RFC3339))
			fmt.Fprintf(a.out, "入口文件: %s\n", manifest.Artifact)
			fmt.Fprintf(a.out, "构建 ID:  %s\n", manifest.BuildID)
			return nil
		},
	}
	return cmd
}

// versionCmd 版本命令
func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "%s %s\n", internal.Name, internal.VersionString())
		},
	}
}
