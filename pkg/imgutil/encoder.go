package imgutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-editor/pkg/domain"
)

// Encoder は取り込んだ画像をリクエスト埋め込み用の base64 ペイロードに変換します。
type Encoder struct {
	// Quality が 0 より大きい場合は送信前に JPEG へ再圧縮します。
	Quality int
}

// Encode は画像全体を Data URL に変換し、先頭のスキームとメタデータを取り除いて
// base64 ペイロードだけを取り出します。MIME タイプは申告値を使います。
func (e Encoder) Encode(ctx context.Context, src *domain.SourceImage) (*domain.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src == nil || len(src.Data) == 0 {
		return nil, fmt.Errorf("空の画像はエンコードできません: %w", domain.ErrDecode)
	}

	data := src.Data
	mimeType := DetectMIMEType(src.DeclaredType, data)

	if e.Quality > 0 {
		compressed, err := CompressToJPEG(data, e.Quality)
		if err != nil {
			// 再圧縮できない形式は元データのまま送る
			slog.WarnContext(ctx, "JPEG再圧縮をスキップしました", "name", src.Name, "error", err)
		} else {
			data = compressed
			mimeType = jpegMIMEType
		}
	}

	_, payload, err := ParseDataURL(ToDataURL(mimeType, data))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrDecode)
	}

	return &domain.EncodedImage{
		Base64:   payload,
		MIMEType: mimeType,
	}, nil
}
