package viewstate

import (
	"context"
	"testing"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() *domain.SourceImage {
	return &domain.SourceImage{Name: "a.png", DeclaredType: "image/png", Data: []byte("A"), DisplayURL: "data:image/png;base64,QQ=="}
}

// assertInvariant は生成結果とエラーが同時に存在しないことを確認する
func assertInvariant(t *testing.T, s State) {
	t.Helper()
	assert.Equal(t, s.Phase == PhaseSuccess, s.Generated != nil, "Generated は Success のときだけ")
	assert.Equal(t, s.Phase == PhaseError, s.ErrorMessage != "", "ErrorMessage は Error のときだけ")
}

func TestStore_SuccessFlow(t *testing.T) {
	store := NewStore()
	assert.Equal(t, PhaseIdle, store.Snapshot().Phase)

	store.Ingest(testSource())
	store.SetPrompt("make it gold")

	ticket, captured, ok := store.Begin(func() {})
	require.True(t, ok)
	assert.Equal(t, "make it gold", captured.Prompt, "送信時点の状態が返る")
	assert.Equal(t, PhaseLoading, store.Snapshot().Phase)
	assertInvariant(t, store.Snapshot())

	_, _, again := store.Begin(func() {})
	assert.False(t, again, "Loading 中の二重送信は拒否される")

	img := domain.NewGeneratedImage("image/png", []byte("A"))
	assert.True(t, store.Succeed(ticket, img))

	s := store.Snapshot()
	assert.Equal(t, PhaseSuccess, s.Phase)
	assert.Equal(t, img, s.Generated)
	assertInvariant(t, s)

	assert.False(t, store.Succeed(ticket, img), "同じ Ticket は二度反映されない")
}

func TestStore_FailureFlow(t *testing.T) {
	store := NewStore()
	store.Ingest(testSource())

	ticket, _, ok := store.Begin(nil)
	require.True(t, ok)
	assert.True(t, store.Fail(ticket, "network down"))

	s := store.Snapshot()
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, "network down", s.ErrorMessage)
	assertInvariant(t, s)

	t.Run("空メッセージは汎用文言になる", func(t *testing.T) {
		ticket, _, ok := store.Begin(nil)
		require.True(t, ok)
		store.Fail(ticket, "")
		assert.Equal(t, domain.GenericErrorMessage, store.Snapshot().ErrorMessage)
	})
}

func TestStore_BeginClearsPreviousResult(t *testing.T) {
	store := NewStore()
	store.Ingest(testSource())

	ticket, _, _ := store.Begin(nil)
	store.Succeed(ticket, domain.NewGeneratedImage("image/png", []byte("A")))

	_, _, ok := store.Begin(nil)
	require.True(t, ok, "Success からも送信できる")
	s := store.Snapshot()
	assert.Nil(t, s.Generated)
	assertInvariant(t, s)
}

func TestStore_IngestDuringLoading(t *testing.T) {
	store := NewStore()
	store.Ingest(testSource())

	ctx, cancel := context.WithCancel(context.Background())
	ticket, _, ok := store.Begin(cancel)
	require.True(t, ok)

	next := &domain.SourceImage{Name: "b.png", Data: []byte("B")}
	store.Ingest(next)

	assert.ErrorIs(t, ctx.Err(), context.Canceled, "進行中のリクエストはキャンセルされる")

	s := store.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, next, s.Source)

	assert.False(t, store.Succeed(ticket, domain.NewGeneratedImage("image/png", []byte("A"))), "古い結果は破棄される")
	assert.False(t, store.Fail(ticket, "late"), "古いエラーも破棄される")
	assert.Equal(t, PhaseIdle, store.Snapshot().Phase)
}

func TestStore_IngestClearsResultAndError(t *testing.T) {
	store := NewStore()
	store.SetError(domain.ValidationMessage)
	assert.Equal(t, PhaseError, store.Snapshot().Phase)

	store.Ingest(testSource())
	s := store.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Empty(t, s.ErrorMessage)
	assertInvariant(t, s)
}

func TestStore_SetError(t *testing.T) {
	store := NewStore()
	store.Ingest(testSource())
	ticket, _, _ := store.Begin(nil)

	assert.False(t, store.SetError("ignored"), "Loading 中はバナーを上書きしない")
	assert.Equal(t, PhaseLoading, store.Snapshot().Phase)

	store.Succeed(ticket, domain.NewGeneratedImage("image/png", []byte("A")))
	assert.True(t, store.SetError(domain.DecodeMessage))
	s := store.Snapshot()
	assert.Nil(t, s.Generated, "エラーと生成結果は同時に存在しない")
	assertInvariant(t, s)
}

func TestStore_SetPromptKeepsPhase(t *testing.T) {
	store := NewStore()
	store.Ingest(testSource())
	store.Begin(nil)

	store.SetPrompt("changed while loading")
	s := store.Snapshot()
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, "changed while loading", s.Prompt)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "success", PhaseSuccess.String())
	assert.Equal(t, "error", PhaseError.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
