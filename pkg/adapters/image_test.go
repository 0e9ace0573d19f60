package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiImageEditor_Edit(t *testing.T) {
	ctx := context.Background()
	const modelName = "gemini-2.5-flash-image"
	req := domain.EditRequest{ImageBase64: "QQ==", MIMEType: "image/png", Prompt: "Apply a warm, golden hour filter"}

	t.Run("Success/ShouldRequestImageOnlyAndBuildDataURL", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				assert.Equal(t, modelName, model)
				require.Len(t, contents, 1)
				assert.Equal(t, string(genai.RoleUser), contents[0].Role)
				require.Len(t, contents[0].Parts, 2)
				assert.NotNil(t, contents[0].Parts[0].InlineData)
				assert.Equal(t, req.Prompt, contents[0].Parts[1].Text)
				require.NotNil(t, config)
				assert.Equal(t, []string{"IMAGE"}, config.ResponseModalities)
				return inlineImageResponse("image/png", []byte("A")), nil
			},
		}

		editor, err := NewGeminiImageEditor(NewGeminiImageCore(nil, nil, 0), ai, modelName)
		require.NoError(t, err)

		img, err := editor.Edit(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,QQ==", img.DataURL)
		assert.Equal(t, 1, ai.calls)
	})

	t.Run("Failure/ShouldWrapClientErrorAsTransportError", func(t *testing.T) {
		clientErr := errors.New("quota exceeded")
		ai := &mockAIClient{
			generateFunc: func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, clientErr
			},
		}

		editor, _ := NewGeminiImageEditor(&mockImageCore{}, ai, modelName)
		_, err := editor.Edit(ctx, req)

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, clientErr)
		assert.Equal(t, "quota exceeded", domain.UserMessage(err))
	})

	t.Run("Failure/ShouldReturnNoImageWhenParsingFails", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
		}

		editor, _ := NewGeminiImageEditor(NewGeminiImageCore(nil, nil, 0), ai, modelName)
		_, err := editor.Edit(ctx, req)
		assert.ErrorIs(t, err, domain.ErrNoImageGenerated)
	})

	t.Run("Failure/ShouldNotCallRemoteWhenRequestIsInvalid", func(t *testing.T) {
		ai := &mockAIClient{}
		editor, _ := NewGeminiImageEditor(&mockImageCore{}, ai, modelName)

		_, err := editor.Edit(ctx, domain.EditRequest{Prompt: "test"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, ai.calls)
	})
}

func TestNewGeminiImageEditor(t *testing.T) {
	t.Run("依存関係が足りない場合はエラー", func(t *testing.T) {
		_, err := NewGeminiImageEditor(nil, &mockAIClient{}, "model")
		assert.Error(t, err)

		_, err = NewGeminiImageEditor(&mockImageCore{}, nil, "model")
		assert.Error(t, err)
	})

	t.Run("モデル名が空なら既定モデル", func(t *testing.T) {
		editor, err := NewGeminiImageEditor(&mockImageCore{}, &mockAIClient{}, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultImageModel, editor.model)
	})
}

func TestEnvModel_MissingKey(t *testing.T) {
	t.Setenv("IMAGE_EDITOR_TEST_KEY", "")
	m := NewEnvModel("IMAGE_EDITOR_TEST_KEY")

	_, err := m.GenerateContent(context.Background(), DefaultImageModel, nil, nil)
	assert.Error(t, err)
}
