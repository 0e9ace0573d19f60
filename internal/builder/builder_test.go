package builder

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shouni/gemini-image-editor/internal/config"
	"github.com/shouni/gemini-image-editor/pkg/ingest"
	"github.com/shouni/gemini-image-editor/pkg/viewstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

type stubModel struct {
	model string
}

func (s *stubModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("A")}}}},
		}},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ImageModel:    "test-image-model",
		APIKeyEnv:     "TEST_KEY",
		HTTPTimeout:   time.Second,
		EditTimeout:   time.Second,
		URLCacheTTL:   time.Minute,
		RateInterval:  0,
		MaxConcurrent: 1,
	}
}

func TestBuildAppContext(t *testing.T) {
	_, err := BuildAppContextWithModel(nil, &stubModel{})
	assert.Error(t, err)
	_, err = BuildAppContext(context.Background(), nil)
	assert.Error(t, err)

	app, err := BuildAppContext(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.Editor)
	assert.NotNil(t, app.Fetcher)
}

func TestAppContext_NewWorkspace(t *testing.T) {
	model := &stubModel{}
	app, err := BuildAppContextWithModel(testConfig(), model)
	require.NoError(t, err)

	a, b := app.NewWorkspace(), app.NewWorkspace()
	_, err = a.Ingestor().FromSelection(context.Background(), []ingest.Item{
		{Name: "a.png", Type: "image/png", Reader: bytes.NewReader([]byte("A"))},
	})
	require.NoError(t, err)
	a.SetPrompt("x")

	_, err = a.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-image-model", model.model)

	assert.Equal(t, viewstate.PhaseSuccess, a.Snapshot().Phase)
	assert.False(t, b.Snapshot().HasImage(), "Workspace 同士は状態を共有しない")
}
