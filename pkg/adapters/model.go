package adapters

import (
	"context"
	"fmt"

	"github.com/shouni/go-utils/envutil"
	"google.golang.org/genai"
)

// DefaultImageModel は画像編集に使う既定のモデル名です。
const DefaultImageModel = "gemini-2.5-flash-image"

// GenerativeModel は Gemini の generateContent 呼び出しを抽象化するインターフェースです。
// *genai.Models がそのまま満たします。
type GenerativeModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// EnvModel は呼び出しのたびに環境変数から API キーを読み、クライアントを作って送信します。
// キーのローテーションや事前検証は行いません。
type EnvModel struct {
	keyEnv string
}

// NewEnvModel は指定した環境変数名から API キーを読む EnvModel を作ります。
func NewEnvModel(keyEnv string) *EnvModel {
	return &EnvModel{keyEnv: keyEnv}
}

// GenerateContent は GenerativeModel の実装です。
func (m *EnvModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	apiKey := envutil.GetEnv(m.keyEnv, "")
	if apiKey == "" {
		return nil, fmt.Errorf("環境変数 %s が設定されていません", m.keyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	return client.Models.GenerateContent(ctx, model, contents, config)
}

var _ GenerativeModel = (*EnvModel)(nil)
