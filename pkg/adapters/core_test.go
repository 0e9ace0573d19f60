package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiImageCore_FetchImage(t *testing.T) {
	ctx := context.Background()
	validPng := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")
	const publicURL = "http://93.184.216.34/img.png"

	t.Run("キャッシュにある場合はダウンロードしない", func(t *testing.T) {
		cache := &mockCache{data: map[string]interface{}{publicURL: validPng}}
		httpClient := &mockHTTPClient{}
		core := NewGeminiImageCore(httpClient, cache, time.Hour)

		data, err := core.FetchImage(ctx, publicURL)
		require.NoError(t, err)
		assert.Equal(t, validPng, data)
		assert.Zero(t, httpClient.calls)
	})

	t.Run("キャッシュにない場合はダウンロードして保存する", func(t *testing.T) {
		cache := &mockCache{}
		httpClient := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				return validPng, nil
			},
		}
		core := NewGeminiImageCore(httpClient, cache, time.Hour)

		data, err := core.FetchImage(ctx, publicURL)
		require.NoError(t, err)
		assert.Equal(t, validPng, data)

		cached, found := cache.Get(publicURL)
		assert.True(t, found)
		assert.Equal(t, validPng, cached)
	})

	t.Run("ループバック宛てのURLはブロックする", func(t *testing.T) {
		httpClient := &mockHTTPClient{}
		core := NewGeminiImageCore(httpClient, &mockCache{}, time.Hour)

		_, err := core.FetchImage(ctx, "http://127.0.0.1/admin.png")
		assert.Error(t, err)
		assert.Zero(t, httpClient.calls)
	})

	t.Run("ダウンロード失敗はエラーを返す", func(t *testing.T) {
		fetchErr := errors.New("404")
		httpClient := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				return nil, fetchErr
			},
		}
		core := NewGeminiImageCore(httpClient, nil, time.Hour)

		_, err := core.FetchImage(ctx, publicURL)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("HTTPクライアント未設定ならエラー", func(t *testing.T) {
		core := NewGeminiImageCore(nil, nil, 0)
		_, err := core.FetchImage(ctx, publicURL)
		assert.Error(t, err)
	})

	t.Run("gs://はObjectReaderから読み込む", func(t *testing.T) {
		httpClient := &mockHTTPClient{}
		reader := &mockObjectReader{objects: map[string][]byte{"gs://bucket/cat.png": validPng}}
		core := NewGeminiImageCore(httpClient, &mockCache{}, time.Hour)
		core.SetObjectReader(reader)

		data, err := core.FetchImage(ctx, "gs://bucket/cat.png")
		require.NoError(t, err)
		assert.Equal(t, validPng, data)
		assert.Zero(t, httpClient.calls)

		_, err = core.FetchImage(ctx, "gs://bucket/missing.png")
		assert.Error(t, err)
	})

	t.Run("ObjectReader未設定ならgs://はエラー", func(t *testing.T) {
		core := NewGeminiImageCore(&mockHTTPClient{}, nil, 0)
		_, err := core.FetchImage(ctx, "gs://bucket/cat.png")
		assert.Error(t, err)
	})
}

func TestGeminiImageCore_ToParts(t *testing.T) {
	core := NewGeminiImageCore(nil, nil, 0)

	t.Run("画像パーツの後にテキストパーツが続く", func(t *testing.T) {
		parts, err := core.ToParts(domain.EditRequest{ImageBase64: "QQ==", MIMEType: "image/png", Prompt: "make it gold"})
		require.NoError(t, err)
		require.Len(t, parts, 2)

		require.NotNil(t, parts[0].InlineData)
		assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
		assert.Equal(t, []byte("A"), parts[0].InlineData.Data)
		assert.Equal(t, "make it gold", parts[1].Text)
	})

	t.Run("base64として不正ならデコードエラー", func(t *testing.T) {
		_, err := core.ToParts(domain.EditRequest{ImageBase64: "%%%", MIMEType: "image/png", Prompt: "x"})
		assert.ErrorIs(t, err, domain.ErrDecode)
	})
}

func TestGeminiImageCore_ParseToResponse(t *testing.T) {
	core := &GeminiImageCore{}

	t.Run("最初の候補の最初のパーツから画像を取り出す", func(t *testing.T) {
		out, err := core.ParseToResponse(inlineImageResponse("image/png", []byte("A")))
		require.NoError(t, err)
		assert.Equal(t, "image/png", out.MimeType)
		assert.Equal(t, []byte("A"), out.Data)
	})

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil応答", nil},
		{"候補なし", &genai.GenerateContentResponse{}},
		{"コンテンツなし", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"テキストのみ", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "I cannot edit this image."}}}},
		}}},
		{"画像が2番目のパーツ", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("A")}},
			}}},
		}}},
		{"安全フィルターでブロック", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{FinishReason: genai.FinishReasonSafety},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ParseToResponse(tt.resp)
			assert.ErrorIs(t, err, domain.ErrNoImageGenerated)
		})
	}
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"パブリックIP", "https://93.184.216.34/favicon.ico", false},
		{"不正なスキーム", "gopher://93.184.216.34", true},
		{"GCSスキーム", "gs://bucket/path.png", true},
		{"ループバック", "http://127.0.0.1/admin", true},
		{"プライベートIP", "http://10.255.255.254/metadata", true},
		{"リンクローカル", "http://169.254.169.254/latest", true},
		{"パースできない", "::not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := isSafeURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, safe)
			} else {
				assert.NoError(t, err)
				assert.True(t, safe)
			}
		})
	}
}
