package builder

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-image-editor/internal/config"
	"github.com/shouni/gemini-image-editor/pkg/adapters"
	"github.com/shouni/gemini-image-editor/pkg/editor"
	"github.com/shouni/gemini-image-editor/pkg/imgutil"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// AppContext は編集画面を組み立てるための共通コンポーネントを保持します。
// Workspace はセッションごとに作りますが、リモート呼び出しの枠と URL キャッシュは全体で共有します。
type AppContext struct {
	Config  *config.Config
	Editor  adapters.ImageEditor      // Gemini への送信を行うアダプター
	Fetcher *adapters.GeminiImageCore // URL 取り込みとリクエスト組み立てを行う共通ロジック
	slots   *semaphore.Weighted
}

// BuildAppContext は環境変数から API キーを読む本番用のクライアントで AppContext を構築します。
// EnableGCS のときは gs:// の URL からも取り込めるようにします。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	app, err := BuildAppContextWithModel(cfg, adapters.NewEnvModel(cfg.APIKeyEnv))
	if err != nil {
		return nil, err
	}

	if cfg.EnableGCS {
		factory, err := gcsfactory.NewGCSClientFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("GCSクライアントファクトリの初期化に失敗しました: %w", err)
		}
		reader, err := factory.NewInputReader()
		if err != nil {
			return nil, fmt.Errorf("InputReaderの取得に失敗しました: %w", err)
		}
		app.Fetcher.SetObjectReader(reader)
	}
	return app, nil
}

// BuildAppContextWithModel は任意の GenerativeModel で AppContext を構築します。
func BuildAppContextWithModel(cfg *config.Config, model adapters.GenerativeModel) (*AppContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	httpClient := httpkit.New(cfg.HTTPTimeout)
	urlCache := cache.New(cfg.URLCacheTTL, 2*cfg.URLCacheTTL)
	core := adapters.NewGeminiImageCore(httpClient, urlCache, cfg.URLCacheTTL)

	imgEditor, err := adapters.NewGeminiImageEditor(core, model, cfg.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("画像エディターの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:  cfg,
		Editor:  imgEditor,
		Fetcher: core,
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// NewWorkspace は一人分の Workspace を作ります。送信頻度の制限は Workspace ごとに持ちます。
func (a *AppContext) NewWorkspace() *editor.Workspace {
	opts := []editor.Option{
		editor.WithEncoder(imgutil.Encoder{Quality: a.Config.CompressQuality}),
		editor.WithSlots(a.slots),
		editor.WithTimeout(a.Config.EditTimeout),
	}
	if a.Config.RateInterval > 0 {
		opts = append(opts, editor.WithRateLimiter(rate.NewLimiter(rate.Every(a.Config.RateInterval), 1)))
	}
	return editor.NewWorkspace(a.Editor, a.Fetcher, opts...)
}
