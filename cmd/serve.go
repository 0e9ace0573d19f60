package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-editor/internal/builder"
	"github.com/shouni/gemini-image-editor/internal/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "編集画面の API サーバーを起動します。",
	Long: `セッションごとに一つの編集画面を持つ HTTP サーバーを起動します。
API キーは送信のたびに環境変数から読み込むため、起動時には必須ではありません。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		app, err := builder.BuildAppContext(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("アプリケーションの初期化に失敗しました: %w", err)
		}

		slog.Info("編集サーバーを準備しました",
			"image_model", cfg.ImageModel,
			"api_key_env", cfg.APIKeyEnv,
			"max_concurrent", cfg.MaxConcurrent,
			"session_ttl", cfg.SessionTTL,
		)

		srv := server.New(app, cfg.SessionTTL, cfg.MaxUploadBytes)
		return srv.ListenAndServe(cmd.Context(), cfg.Addr, cfg.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "待ち受けアドレス（未指定なら ADDR / PORT または :8080）")
}
