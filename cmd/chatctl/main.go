// Package main 实现命令行工具 chatctl：在终端中查看报表视图、导出 XLSX、签发管理令牌。
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"chat-analysis-go/internal/analysis"
	"chat-analysis-go/internal/config"
	"chat-analysis-go/internal/loader"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/export"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/termchart"
	"chat-analysis-go/pkg/textanalysis"
	"chat-analysis-go/pkg/token"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config

	viewName   string
	topN       int
	chartWidth int
	outPath    string
	subject    string
	role       string
)

var rootCmd = &cobra.Command{
	Use:           "chatctl",
	Short:         "Chat export reports in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.Init("debug", "console", "")
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

// viewsCmd 列出视图目录
var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List the available report views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDATASET\tTITLE")
		for _, v := range analysis.Views() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Dataset, v.Title)
		}
		return w.Flush()
	},
}

// reportCmd 加载数据集并在终端渲染一个视图
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Load both datasets and render one view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := computeView(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), termchart.Render(res, chartWidth))
		return nil
	},
}

// exportCmd 加载数据集并把一个视图写入 XLSX 文件
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Load both datasets and export one view as an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := computeView(cmd.Context())
		if err != nil {
			return err
		}
		path := outPath
		if path == "" {
			path = export.FileName(res)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.WriteXLSX(f, res); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// tokenCmd 签发访问管理接口的 JWT
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed token for the admin API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if subject == "" {
			return fmt.Errorf("--subject is required")
		}
		m := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireHours)
		signed, err := m.GenerateToken(subject, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug logs to stdout")

	for _, c := range []*cobra.Command{reportCmd, exportCmd} {
		c.Flags().StringVar(&viewName, "view", "", "view name, see `chatctl views`")
		c.Flags().IntVar(&topN, "top", 0, "override the number of entries in ranked views")
		_ = c.MarkFlagRequired("view")
	}
	reportCmd.Flags().IntVar(&chartWidth, "width", 40, "length of the longest bar")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, defaults to <view>.xlsx")
	tokenCmd.Flags().StringVar(&subject, "subject", "", "token subject")
	tokenCmd.Flags().StringVar(&role, "role", token.RoleAdmin, "token role")

	rootCmd.AddCommand(viewsCmd, reportCmd, exportCmd, tokenCmd)
}

// computeView 加载两个数据集并计算 viewName 指定的视图。
func computeView(ctx context.Context) (*model.ViewResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := analysis.Lookup(viewName); !ok {
		return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownView, viewName)
	}

	analyzer := analysis.NewAnalyzer(analysis.Options{
		TopN:              cfg.Report.TopN,
		WordCloudMaxWords: cfg.Report.WordCloudMaxWords,
		Tokenizer:         textanalysis.NewTokenizer(cfg.Report.ExtraStopwords),
	})
	if topN > 0 {
		analyzer = analyzer.WithTopN(topN)
	}
	svc := service.NewReportService(service.Dependencies{
		Loader:   loader.New(cfg.Datasets),
		Analyzer: analyzer,
	})

	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := svc.Load(loadCtx); err != nil {
		return nil, err
	}
	return svc.View(ctx, viewName)
}

func execute(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.Execute()
}

func main() {
	if err := execute(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
