package viewstate

import (
	"github.com/shouni/gemini-image-editor/pkg/domain"
)

// Phase は画面の状態です。
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// MarshalText は JSON 出力で名前を使うためのものです。
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State はある時点の画面状態のスナップショットです。
// Generated は PhaseSuccess のときだけ、ErrorMessage は PhaseError のときだけ値を持ちます。
type State struct {
	Phase        Phase
	Source       *domain.SourceImage
	Prompt       string
	Generated    *domain.GeneratedImage
	ErrorMessage string
}

// HasImage は編集元の画像が取り込まれているかを返します。
func (s State) HasImage() bool {
	return s.Source != nil
}

// CanSubmit は送信ボタンを押せる状態かを返します。
func (s State) CanSubmit() bool {
	return s.HasImage() && s.Prompt != "" && s.Phase != PhaseLoading
}
