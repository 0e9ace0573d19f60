package domain

import (
	"encoding/base64"
	"strings"
)

// SourceImage はユーザーが取り込んだ編集元の画像です。
// 再取り込み時には丸ごと置き換えられます。
type SourceImage struct {
	Name         string
	DeclaredType string // アップロード時やクリップボードで申告された MIME タイプ
	Data         []byte
	DisplayURL   string // 表示用の Data URL
}

// EncodedImage は Encoder が生成するリクエスト埋め込み用のペイロードです。
type EncodedImage struct {
	Base64   string
	MIMEType string
}

// EditRequest は送信直前に組み立てられる単発の編集要求です。保持はしません。
type EditRequest struct {
	ImageBase64 string
	MIMEType    string
	Prompt      string
}

// NewEditRequest は EncodedImage とプロンプトから EditRequest を組み立てます。
func NewEditRequest(img *EncodedImage, prompt string) EditRequest {
	if img == nil {
		return EditRequest{Prompt: prompt}
	}
	return EditRequest{
		ImageBase64: img.Base64,
		MIMEType:    img.MIMEType,
		Prompt:      prompt,
	}
}

// Validate は画像とプロンプトが揃っているかを確認します。
func (r EditRequest) Validate() error {
	if r.ImageBase64 == "" || r.Prompt == "" {
		return ErrValidation
	}
	return nil
}

// GeneratedImage は生成に成功した画像です。同時に存在するのは常に一つだけです。
type GeneratedImage struct {
	MIMEType string
	Data     []byte
	DataURL  string
}

// NewGeneratedImage は MIME タイプと生データから GeneratedImage を作ります。
// DataURL は必ず data:<mimeType>;base64,<payload> の形になります。
func NewGeneratedImage(mimeType string, data []byte) *GeneratedImage {
	return &GeneratedImage{
		MIMEType: mimeType,
		Data:     data,
		DataURL:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// IsImageType は MIME タイプ文字列が画像を示すかを判定します。
// クリップボードの判定に合わせて部分一致で扱います。
func IsImageType(mimeType string) bool {
	return strings.Contains(mimeType, "image")
}
