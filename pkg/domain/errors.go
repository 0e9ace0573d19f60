package domain

import (
	"errors"
)

const (
	// ValidationMessage は画像またはプロンプトが欠けている場合に表示する文言です。
	ValidationMessage = "Please upload an image and provide a prompt."
	// NoImageMessage は応答に画像データが含まれなかった場合の文言です。
	NoImageMessage = "No image was generated. Please try a different prompt."
	// GenericErrorMessage はエラーにメッセージが無い場合の代替文言です。
	GenericErrorMessage = "An error occurred while generating the image."
	// DecodeMessage は画像ファイルの読み込みに失敗した場合の文言です。
	DecodeMessage = "Failed to read the image."
	// BusyMessage は生成中に再送信された場合の文言です。
	BusyMessage = "An edit is already in progress."
)

var (
	ErrValidation       = errors.New(ValidationMessage)
	ErrNoImageGenerated = errors.New(NoImageMessage)
	ErrDecode           = errors.New(DecodeMessage)
	ErrBusy             = errors.New(BusyMessage)
)

// TransportError はリモート呼び出しそのものの失敗（通信、認証、クォータ等）を表します。
// メッセージは元のエラーのものをそのまま返します。
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage はエラーをバナーに表示する一行の文言に変換します。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrValidation):
		return ValidationMessage
	case errors.Is(err, ErrNoImageGenerated):
		return NoImageMessage
	case errors.Is(err, ErrDecode):
		return DecodeMessage
	case errors.Is(err, ErrBusy):
		return BusyMessage
	}

	var te *TransportError
	if errors.As(err, &te) {
		if msg := te.Error(); msg != "" {
			return msg
		}
		return GenericErrorMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
