package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-image-editor/internal/builder"
	"github.com/shouni/gemini-image-editor/internal/config"
	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/shouni/gemini-image-editor/pkg/editor"
	"github.com/shouni/gemini-image-editor/pkg/ingest"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/spf13/cobra"
)

// editOptions は edit コマンドのフラグです。
type editOptions struct {
	Image   string // ローカルパス、gs://...、または http(s):// の URL
	Prompt  string
	Preset  string
	Output  string // ローカルパスまたは gs://...
	Quality int
}

var editOpts editOptions

// imageOpener は編集元画像を開きます。remoteio.InputReader が満たします。
type imageOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// imageWriter は生成画像を保存します。remoteio.OutputWriter が満たします。
type imageWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "画像を一枚プロンプトで編集して保存します。",
	Long: `--image の画像を --prompt（または --preset）で編集し、結果を --output に保存します。
入出力にはローカルパスのほか gs:// を指定できます。--image には http(s) の URL も使えます。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if editOpts.Quality > 0 {
			cfg.CompressQuality = editOpts.Quality
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if os.Getenv(cfg.APIKeyEnv) == "" {
			return fmt.Errorf("環境変数 %s が設定されていません", cfg.APIKeyEnv)
		}

		app, err := builder.BuildAppContext(ctx, cfg)
		if err != nil {
			return fmt.Errorf("アプリケーションの初期化に失敗しました: %w", err)
		}

		opener, writer, err := newEditIO(ctx, editOpts)
		if err != nil {
			return err
		}

		img, err := runEdit(ctx, app.NewWorkspace(), editOpts, opener, writer)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s, %d bytes)\n", withExtension(editOpts.Output, img.MIMEType), img.MIMEType, len(img.Data))
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editOpts.Image, "image", "i", "", "編集元の画像（ローカル、gs://、http(s)://）")
	editCmd.Flags().StringVarP(&editOpts.Prompt, "prompt", "p", "", "編集内容を指示するプロンプト")
	editCmd.Flags().StringVar(&editOpts.Preset, "preset", "", "プリセット名（presets コマンドで一覧表示）")
	editCmd.Flags().StringVarP(&editOpts.Output, "output", "o", config.DefaultLocalOutputImage, "保存先（ローカル or gs://...）")
	editCmd.Flags().IntVarP(&editOpts.Quality, "quality", "q", 0, "送信前に JPEG へ再圧縮する品質（1-100、0 なら再圧縮しない）")
	_ = editCmd.MarkFlagRequired("image")
	editCmd.MarkFlagsMutuallyExclusive("prompt", "preset")
}

// runEdit は取り込み、プロンプト設定、送信、保存を順に行います。
func runEdit(ctx context.Context, ws *editor.Workspace, o editOptions, opener imageOpener, writer imageWriter) (*domain.GeneratedImage, error) {
	if err := ingestFrom(ctx, ws, o.Image, opener); err != nil {
		return nil, err
	}

	if o.Preset != "" {
		if _, err := ws.ApplyPreset(o.Preset); err != nil {
			return nil, err
		}
	} else {
		ws.SetPrompt(o.Prompt)
	}

	img, err := ws.Submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}

	output := withExtension(o.Output, img.MIMEType)
	if err := writer.Write(ctx, output, bytes.NewReader(img.Data), img.MIMEType); err != nil {
		return nil, fmt.Errorf("画像の保存に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "編集結果を保存しました", "path", output, "mime_type", img.MIMEType)
	return img, nil
}

func ingestFrom(ctx context.Context, ws *editor.Workspace, src string, opener imageOpener) error {
	if isHTTPURL(src) {
		_, err := ws.Ingestor().FromURL(ctx, src)
		return err
	}

	rc, err := opener.Open(ctx, src)
	if err != nil {
		return fmt.Errorf("画像を開けませんでした (%s): %w", src, err)
	}
	defer rc.Close()

	_, err = ws.Ingestor().FromSelection(ctx, []ingest.Item{{
		Name:   path.Base(src),
		Type:   mime.TypeByExtension(strings.ToLower(path.Ext(src))),
		Reader: rc,
	}})
	return err
}

// withExtension は拡張子の無い保存先に MIME タイプから拡張子を補います。
func withExtension(output, mimeType string) string {
	if path.Ext(output) != "" {
		return output
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		slog.Warn("MIMEタイプから拡張子を決められないため .png を使います", "mime_type", mimeType)
		return output + ".png"
	}
	return output + exts[0]
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isGCSPath(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// newEditIO は入出力先を選びます。gs:// を含む場合だけ GCS クライアントを作ります。
func newEditIO(ctx context.Context, o editOptions) (imageOpener, imageWriter, error) {
	var opener imageOpener = localIO{}
	var writer imageWriter = localIO{}
	if !isGCSPath(o.Image) && !isGCSPath(o.Output) {
		return opener, writer, nil
	}

	factory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("GCSクライアントの初期化に失敗しました: %w", err)
	}
	if isGCSPath(o.Image) {
		if opener, err = factory.NewInputReader(); err != nil {
			return nil, nil, err
		}
	}
	if isGCSPath(o.Output) {
		if writer, err = factory.NewOutputWriter(); err != nil {
			return nil, nil, err
		}
	}
	return opener, writer, nil
}

// localIO はローカルファイルシステムへの入出力です。
type localIO struct{}

func (localIO) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (localIO) Write(_ context.Context, name string, r io.Reader, _ string) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
