package viewstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-image-editor/pkg/domain"
)

// Ticket は Begin で発行される送信の識別子です。
// Succeed/Fail は発行時と同じ世代のときだけ反映されます。
type Ticket struct {
	generation uint64
}

// Store は画面状態の唯一の保持場所です。すべての遷移はこの型のメソッドを通します。
type Store struct {
	mu         sync.RWMutex
	state      State
	generation uint64
	cancel     context.CancelFunc
}

// NewStore は Idle 状態の Store を返します。
func NewStore() *Store {
	return &Store{}
}

// Snapshot は現在の状態のコピーを返します。
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ingest は新しい編集元画像に置き換え、生成結果とエラーを消して Idle に戻します。
// 送信中のリクエストがあればキャンセルし、その結果は以後反映されません。
func (s *Store) Ingest(src *domain.SourceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseLoading {
		slog.Info("送信中に新しい画像が取り込まれたため、進行中のリクエストを破棄します", "generation", s.generation)
	}
	s.abortLocked()

	s.state.Source = src
	s.state.Generated = nil
	s.state.ErrorMessage = ""
	s.state.Phase = PhaseIdle
}

// SetPrompt はプロンプトを上書きします。状態の遷移はしません。
func (s *Store) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prompt = prompt
}

// SetError はエラーバナーを表示します。送信中は何もしません。
// 直前の生成結果は消えます。
func (s *Store) SetError(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseLoading {
		return false
	}
	s.setErrorLocked(message)
	return true
}

// Begin は Loading に遷移して Ticket と遷移直後の状態を返します。すでに Loading なら false を返します。
// cancel は後から Ingest された場合に呼ばれます。
func (s *Store) Begin(cancel context.CancelFunc) (Ticket, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseLoading {
		return Ticket{}, s.state, false
	}

	s.generation++
	s.cancel = cancel
	s.state.Phase = PhaseLoading
	s.state.Generated = nil
	s.state.ErrorMessage = ""
	return Ticket{generation: s.generation}, s.state, true
}

// Succeed は生成結果を反映して Success に遷移します。古い Ticket なら何もせず false を返します。
func (s *Store) Succeed(t Ticket, img *domain.GeneratedImage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		slog.Info("古いリクエストの結果を破棄しました", "ticket", t.generation, "current", s.generation)
		return false
	}
	s.cancel = nil
	s.state.Generated = img
	s.state.ErrorMessage = ""
	s.state.Phase = PhaseSuccess
	return true
}

// Fail はエラーを反映して Error に遷移します。古い Ticket なら何もせず false を返します。
func (s *Store) Fail(t Ticket, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		slog.Info("古いリクエストのエラーを破棄しました", "ticket", t.generation, "current", s.generation)
		return false
	}
	s.cancel = nil
	s.setErrorLocked(message)
	return true
}

func (s *Store) currentLocked(t Ticket) bool {
	return s.state.Phase == PhaseLoading && t.generation == s.generation
}

func (s *Store) setErrorLocked(message string) {
	if message == "" {
		message = domain.GenericErrorMessage
	}
	s.state.Generated = nil
	s.state.ErrorMessage = message
	s.state.Phase = PhaseError
}

func (s *Store) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// 世代を進めて進行中の Ticket を無効にする
	s.generation++
}
