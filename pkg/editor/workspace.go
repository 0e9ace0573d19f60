package editor

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-image-editor/pkg/adapters"
	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/shouni/gemini-image-editor/pkg/ingest"
	"github.com/shouni/gemini-image-editor/pkg/presets"
	"github.com/shouni/gemini-image-editor/pkg/viewstate"
)

// Workspace は一人分の編集画面です。状態、取り込み、送信をまとめて持ちます。
type Workspace struct {
	store    *viewstate.Store
	ingestor *ingest.Ingestor
	editor   *Orchestrator
}

// NewWorkspace は空の Workspace を作ります。fetcher が nil なら URL からの取り込みは使えません。
func NewWorkspace(editor adapters.ImageEditor, fetcher ingest.RemoteFetcher, opts ...Option) *Workspace {
	store := viewstate.NewStore()
	return &Workspace{
		store:    store,
		ingestor: ingest.NewIngestor(store, fetcher),
		editor:   NewOrchestrator(store, editor, opts...),
	}
}

func (w *Workspace) Store() *viewstate.Store { return w.store }
func (w *Workspace) Ingestor() *ingest.Ingestor { return w.ingestor }
func (w *Workspace) Orchestrator() *Orchestrator { return w.editor }
func (w *Workspace) Snapshot() viewstate.State { return w.store.Snapshot() }
func (w *Workspace) View() viewstate.View { return w.store.Snapshot().View() }
func (w *Workspace) SetPrompt(prompt string) { w.store.SetPrompt(prompt) }
func (w *Workspace) Begin(ctx context.Context) (*Job, error) { return w.editor.Begin(ctx) }

// ApplyPreset は名前の一致するプリセットでプロンプトを置き換えます。
func (w *Workspace) ApplyPreset(name string) (presets.Preset, error) {
	p, ok := presets.Lookup(name)
	if !ok {
		return presets.Preset{}, fmt.Errorf("プリセット %q は存在しません", name)
	}
	w.store.SetPrompt(p.Prompt)
	return p, nil
}

// Submit は現在の画像とプロンプトで編集を実行し、完了まで待ちます。
func (w *Workspace) Submit(ctx context.Context) (*domain.GeneratedImage, error) {
	return w.editor.Submit(ctx)
}
