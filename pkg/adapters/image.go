package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-editor/pkg/domain"

	"google.golang.org/genai"
)

// ImageEditor は画像とプロンプトから編集済み画像を得るためのインターフェースです。
type ImageEditor interface {
	Edit(ctx context.Context, req domain.EditRequest) (*domain.GeneratedImage, error)
}

// GeminiImageEditor は Gemini の画像生成モデルで画像を編集するアダプター層です。
type GeminiImageEditor struct {
	imgCore  ImageEditorCore // 共通ロジック保持（コンポジション）
	aiClient GenerativeModel // 通信クライアント
	model    string          // 使用するモデル名
}

// NewGeminiImageEditor は GeminiImageCore と依存関係を注入して初期化します。
func NewGeminiImageEditor(core ImageEditorCore, aiClient GenerativeModel, modelName string) (*GeminiImageEditor, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageEditorCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (GenerativeModel) is required")
	}
	if modelName == "" {
		modelName = DefaultImageModel
	}
	return &GeminiImageEditor{
		imgCore:  core,
		aiClient: aiClient,
		model:    modelName,
	}, nil
}

// Edit は画像パーツとテキストパーツを一つのリクエストにまとめ、画像出力のみを要求して一度だけ送信します。
// リトライやストリーミングは行いません。
func (a *GeminiImageEditor) Edit(ctx context.Context, req domain.EditRequest) (*domain.GeneratedImage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parts, err := a.imgCore.ToParts(req)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}

	slog.InfoContext(ctx, "Geminiに画像編集をリクエストします", "model", a.model, "mime_type", req.MIMEType, "prompt_len", len(req.Prompt))
	resp, err := a.aiClient.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	out, err := a.imgCore.ParseToResponse(resp)
	if err != nil {
		return nil, err
	}

	return domain.NewGeneratedImage(out.MimeType, out.Data), nil
}

var _ ImageEditor = (*GeminiImageEditor)(nil)
