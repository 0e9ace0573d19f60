package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/shouni/gemini-image-editor/internal/config"

	"github.com/spf13/cobra"
)

// globalOptions はすべてのサブコマンドで共通のフラグです。
type globalOptions struct {
	ImageModel string
	Verbose    bool
}

var opts globalOptions

var rootCmd = &cobra.Command{
	Use:           "gemini-image-editor",
	Short:         "Gemini で画像をプロンプト編集するツールです。",
	Long:          "画像を一枚取り込み、自然言語のプロンプトで Gemini の画像モデルに編集させます。Web サーバーとしても CLI としても使えます。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if opts.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(newLogger(level))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "使用する Gemini 画像モデル名（未指定なら IMAGE_MODEL または "+config.DefaultImageModel+"）")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力します")

	rootCmd.AddCommand(serveCmd, editCmd, presetsCmd)
}

// loadConfig は環境変数の設定にフラグの上書きを反映します。
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if opts.ImageModel != "" {
		cfg.ImageModel = opts.ImageModel
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Execute は main から呼ばれるエントリポイントです。SIGINT/SIGTERM でキャンセルされます。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗しました", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
