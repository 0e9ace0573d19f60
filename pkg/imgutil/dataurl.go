package imgutil

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// ToDataURL は MIME タイプとバイト列から data:<mime>;base64,<payload> 形式の文字列を作ります。
func ToDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL は Data URL をメタデータ部とペイロードに分割します。
// 最初のカンマより前をメタデータとして扱い、base64 指定が無いものはエラーにします。
func ParseDataURL(dataURL string) (mimeType string, payload string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", fmt.Errorf("data URL ではありません")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("data URL にペイロードがありません")
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("base64 以外の data URL には対応していません")
	}
	return mimeType, payload, nil
}

// DetectMIMEType は申告された MIME タイプを優先し、空の場合のみ中身から推定します。
func DetectMIMEType(declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}
