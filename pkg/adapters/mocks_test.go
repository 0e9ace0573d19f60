package adapters

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"google.golang.org/genai"
)

// mockHTTPClient は HTTPClient のテスト用モックです。
type mockHTTPClient struct {
	calls     int
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.fetchFunc(ctx, url)
}

// mockObjectReader は ObjectReader のテスト用モックです。
type mockObjectReader struct {
	objects map[string][]byte
}

func (m *mockObjectReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// mockCache は ImageCacher インターフェースを実装します。
type mockCache struct {
	data map[string]interface{}
}

func (m *mockCache) Get(key string) (interface{}, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCache) Set(key string, value interface{}, d time.Duration) {
	if m.data == nil {
		m.data = make(map[string]interface{})
	}
	m.data[key] = value
}

// mockImageCore は ImageEditorCore インターフェースのテスト用モックです。
type mockImageCore struct {
	toPartsFunc func(req domain.EditRequest) ([]*genai.Part, error)
	parseFunc   func(resp *genai.GenerateContentResponse) (*ImageOutput, error)
}

func (m *mockImageCore) ToParts(req domain.EditRequest) ([]*genai.Part, error) {
	if m.toPartsFunc != nil {
		return m.toPartsFunc(req)
	}
	return []*genai.Part{{Text: req.Prompt}}, nil
}

func (m *mockImageCore) ParseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if m.parseFunc != nil {
		return m.parseFunc(resp)
	}
	return nil, nil
}

// mockAIClient は GenerativeModel のテスト用モックです。
type mockAIClient struct {
	calls        int
	generateFunc func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(model, contents, config)
	}
	return nil, nil
}

func inlineImageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}
