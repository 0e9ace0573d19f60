package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/shouni/gemini-image-editor/pkg/imgutil"
)

// Item はファイル選択やクリップボードから渡される一つのデータです。
type Item struct {
	Name   string
	Type   string // 申告された MIME タイプ
	Reader io.Reader
}

// Sink は取り込み結果を受け取る状態ストアです。viewstate.Store が満たします。
type Sink interface {
	Ingest(src *domain.SourceImage)
	SetError(message string) bool
}

// RemoteFetcher は URL から画像を取得します。adapters.GeminiImageCore が満たします。
type RemoteFetcher interface {
	FetchImage(ctx context.Context, rawURL string) ([]byte, error)
}

// Ingestor はファイル選択、貼り付け、URL の三つの経路から編集元画像を取り込みます。
// サイズや MIME タイプの検証は行いません。
type Ingestor struct {
	sink    Sink
	fetcher RemoteFetcher
}

// NewIngestor は Ingestor を作ります。URL 取り込みを使わない場合 fetcher は nil で構いません。
func NewIngestor(sink Sink, fetcher RemoteFetcher) *Ingestor {
	return &Ingestor{sink: sink, fetcher: fetcher}
}

// FromSelection は選択されたファイルの先頭を無条件に取り込みます。
// 何も選択されていなければ何もせず nil を返します。
func (i *Ingestor) FromSelection(ctx context.Context, files []Item) (*domain.SourceImage, error) {
	if len(files) == 0 {
		return nil, nil
	}
	return i.ingest(ctx, files[0])
}

// FromClipboard は貼り付けられたアイテムのうち、最初に見つかった画像だけを取り込みます。
// 画像が一つも無ければ貼り付けは無視され、状態は変わりません。
func (i *Ingestor) FromClipboard(ctx context.Context, items []Item) (*domain.SourceImage, error) {
	for _, item := range items {
		if !domain.IsImageType(item.Type) || item.Reader == nil {
			continue
		}
		return i.ingest(ctx, item)
	}
	slog.DebugContext(ctx, "貼り付けに画像が含まれていないため無視します", "items", len(items))
	return nil, nil
}

// FromURL は URL から画像を取得して取り込みます。
func (i *Ingestor) FromURL(ctx context.Context, rawURL string) (*domain.SourceImage, error) {
	if i.fetcher == nil {
		return nil, fmt.Errorf("URLからの取り込みは無効です")
	}

	data, err := i.fetcher.FetchImage(ctx, rawURL)
	if err != nil {
		return nil, i.fail(ctx, rawURL, err)
	}

	src := newSource(nameFromURL(rawURL), "", data)
	i.sink.Ingest(src)
	slog.InfoContext(ctx, "URLから画像を取り込みました", "url", rawURL, "mime_type", src.DeclaredType, "bytes", len(data))
	return src, nil
}

func (i *Ingestor) ingest(ctx context.Context, item Item) (*domain.SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item.Reader == nil {
		return nil, i.fail(ctx, item.Name, fmt.Errorf("読み込み元がありません"))
	}

	data, err := io.ReadAll(item.Reader)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, i.fail(ctx, item.Name, err)
	}

	src := newSource(item.Name, item.Type, data)
	i.sink.Ingest(src)
	slog.InfoContext(ctx, "画像を取り込みました", "name", item.Name, "mime_type", src.DeclaredType, "bytes", len(data))
	return src, nil
}

// fail は読み込み失敗をバナーに出し、直前の画像はそのまま残します。
func (i *Ingestor) fail(ctx context.Context, name string, cause error) error {
	slog.WarnContext(ctx, "画像の読み込みに失敗しました", "name", name, "error", cause)
	i.sink.SetError(domain.DecodeMessage)
	return fmt.Errorf("%s: %v: %w", name, cause, domain.ErrDecode)
}

func newSource(name, declared string, data []byte) *domain.SourceImage {
	mimeType := imgutil.DetectMIMEType(declared, data)
	return &domain.SourceImage{
		Name:         name,
		DeclaredType: mimeType,
		Data:         data,
		DisplayURL:   imgutil.ToDataURL(mimeType, data),
	}
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return path.Base(u.Path)
}
