package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/gemini-image-editor/pkg/domain"

	"google.golang.org/genai"
)

// ImageEditorCore は編集リクエストの組み立てと応答解析を抽象化するインターフェースです。
type ImageEditorCore interface {
	ToParts(req domain.EditRequest) ([]*genai.Part, error)
	ParseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error)
}

// HTTPClient は URL から画像データを取得するためのインターフェースです。
// httpkit.ClientInterface が満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ObjectReader は gs:// などのオブジェクトストレージから読み込むためのインターフェースです。
// remoteio.InputReader が満たします。
type ObjectReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ImageCacher は画像データのキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, d time.Duration)
}

// ImageOutput は応答から取り出した画像データです。
type ImageOutput struct {
	Data     []byte
	MimeType string
}

// GeminiImageCore は画像編集の共通ロジックを保持するコンポーネントです。
type GeminiImageCore struct {
	httpClient HTTPClient
	imageCache ImageCacher
	cacheTTL   time.Duration
	reader     ObjectReader
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore のインスタンスを生成します。
// httpClient と imageCache は URL からの取り込みを使わない場合 nil でも構いません。
func NewGeminiImageCore(httpClient HTTPClient, imageCache ImageCacher, cacheTTL time.Duration) *GeminiImageCore {
	return &GeminiImageCore{
		httpClient: httpClient,
		imageCache: imageCache,
		cacheTTL:   cacheTTL,
	}
}

// FetchImage は URL から編集元の画像を取得します。取得結果はキャッシュされます。
// gs:// で始まる場合は ObjectReader から読み込みます。
func (c *GeminiImageCore) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	if c.imageCache != nil {
		if cached, found := c.imageCache.Get(rawURL); found {
			if data, ok := cached.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", cached))
		}
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(rawURL, "gs://") {
		data, err = c.readObject(ctx, rawURL)
	} else {
		data, err = c.fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}

	if c.imageCache != nil {
		c.imageCache.Set(rawURL, data, c.cacheTTL)
	}
	return data, nil
}

// SetObjectReader は gs:// の読み込みに使う ObjectReader を設定します。
func (c *GeminiImageCore) SetObjectReader(r ObjectReader) {
	c.reader = r
}

func (c *GeminiImageCore) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	if c.httpClient == nil {
		return nil, fmt.Errorf("URLからの画像取得は設定されていません")
	}

	// SSRF対策のバリデーション
	if safe, err := isSafeURL(rawURL); !safe || err != nil {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}

	data, err := c.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("画像のダウンロードに失敗しました: %w", err)
	}
	return data, nil
}

func (c *GeminiImageCore) readObject(ctx context.Context, rawURL string) ([]byte, error) {
	if c.reader == nil {
		return nil, fmt.Errorf("gs:// からの読み込みは設定されていません")
	}
	rc, err := c.reader.Open(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("オブジェクトを開けませんでした: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("オブジェクトの読み込みに失敗しました: %w", err)
	}
	return data, nil
}

// ToParts は編集リクエストを「画像パーツ、テキストパーツ」の順の genai.Part に変換します。
func (c *GeminiImageCore) ToParts(req domain.EditRequest) ([]*genai.Part, error) {
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("画像ペイロードのデコードに失敗しました: %v: %w", err, domain.ErrDecode)
	}
	return []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.MIMEType, Data: data}},
		{Text: req.Prompt},
	}, nil
}

// ParseToResponse は最初の候補の最初のパーツだけを見て画像データを取り出します。
// インラインデータが無ければ domain.ErrNoImageGenerated を返します。
func (c *GeminiImageCore) ParseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, domain.ErrNoImageGenerated
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
		if part := candidate.Content.Parts[0]; part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &ImageOutput{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}, nil
		}
	}

	// 安全フィルター等によるブロックは原因を残しておく
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		slog.Warn("画像生成が異常終了しました", "finish_reason", candidate.FinishReason)
	}
	return nil, domain.ErrNoImageGenerated
}

// isSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
