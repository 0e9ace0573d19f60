package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-image-editor/pkg/adapters"
	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/shouni/gemini-image-editor/pkg/imgutil"
	"github.com/shouni/gemini-image-editor/pkg/viewstate"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrRateLimited は送信頻度の上限を超えた場合に返されます。状態は変わりません。
var ErrRateLimited = errors.New("送信の頻度が上限を超えました")

// Option は Orchestrator の設定を変更します。
type Option func(*Orchestrator)

// WithEncoder は送信前のエンコード設定を差し替えます。
func WithEncoder(e imgutil.Encoder) Option {
	return func(o *Orchestrator) { o.encoder = e }
}

// WithSlots はリモート呼び出しの同時実行数を複数の Orchestrator で共有して制限します。
func WithSlots(slots *semaphore.Weighted) Option {
	return func(o *Orchestrator) { o.slots = slots }
}

// WithRateLimiter は送信の受付頻度を制限します。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithTimeout は一回の編集にかける時間の上限を設定します。0 なら無制限です。
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// Orchestrator は送信操作を受け持ちます。
// 検証、Loading への遷移、エンコード、リモート呼び出し、結果の反映までを一つの流れで扱います。
type Orchestrator struct {
	store   *viewstate.Store
	editor  adapters.ImageEditor
	encoder imgutil.Encoder
	slots   *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
}

// NewOrchestrator は Orchestrator を作ります。
func NewOrchestrator(store *viewstate.Store, editor adapters.ImageEditor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		editor: editor,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Job は Begin で受け付けられた一回分の送信です。Run は一度だけ呼べます。
type Job struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ticket  viewstate.Ticket
	source  *domain.SourceImage
	prompt  string
	store   *viewstate.Store
	editor  adapters.ImageEditor
	encoder imgutil.Encoder
	slots   *semaphore.Weighted
}

// Begin は送信を受け付けて Loading に遷移します。
// 画像かプロンプトが欠けていればバナーを出して ErrValidation を返し、リモート呼び出しは行いません。
// すでに送信中なら ErrBusy を返し、状態は変えません。
func (o *Orchestrator) Begin(ctx context.Context) (*Job, error) {
	snap := o.store.Snapshot()
	if snap.Phase == viewstate.PhaseLoading {
		return nil, domain.ErrBusy
	}
	if !snap.HasImage() || snap.Prompt == "" {
		slog.WarnContext(ctx, "画像またはプロンプトが未入力のため送信しません", "has_image", snap.HasImage(), "prompt_len", len(snap.Prompt))
		o.store.SetError(domain.ValidationMessage)
		return nil, domain.ErrValidation
	}
	if o.limiter != nil && !o.limiter.Allow() {
		return nil, ErrRateLimited
	}

	var (
		jobCtx context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}

	ticket, state, ok := o.store.Begin(cancel)
	if !ok {
		cancel()
		return nil, domain.ErrBusy
	}
	// Snapshot との間にプロンプトが消された場合
	if !state.HasImage() || state.Prompt == "" {
		o.store.Fail(ticket, domain.ValidationMessage)
		cancel()
		return nil, domain.ErrValidation
	}

	return &Job{
		ctx:     jobCtx,
		cancel:  cancel,
		ticket:  ticket,
		source:  state.Source,
		prompt:  state.Prompt,
		store:   o.store,
		editor:  o.editor,
		encoder: o.encoder,
		slots:   o.slots,
	}, nil
}

// Submit は Begin と Run を続けて実行します。
func (o *Orchestrator) Submit(ctx context.Context) (*domain.GeneratedImage, error) {
	job, err := o.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return job.Run()
}

// Run は画像をエンコードしてリモートに送信し、結果を状態に反映します。
// どの経路で終了しても Loading からは必ず抜けます。
func (j *Job) Run() (img *domain.GeneratedImage, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(j.ctx, "画像編集中にパニックが発生しました", "panic", r)
			img, err = nil, errors.New(domain.GenericErrorMessage)
		}

		if err != nil {
			slog.ErrorContext(j.ctx, "画像編集に失敗しました", "error", err, "elapsed", time.Since(start))
			j.store.Fail(j.ticket, domain.UserMessage(err))
		} else {
			slog.InfoContext(j.ctx, "画像編集が完了しました", "mime_type", img.MIMEType, "bytes", len(img.Data), "elapsed", time.Since(start))
			j.store.Succeed(j.ticket, img)
		}
		j.cancel()
	}()

	if j.slots != nil {
		if err := j.slots.Acquire(j.ctx, 1); err != nil {
			return nil, fmt.Errorf("送信枠の確保に失敗しました: %w", err)
		}
		defer j.slots.Release(1)
	}

	encoded, err := j.encoder.Encode(j.ctx, j.source)
	if err != nil {
		return nil, err
	}

	img, err = j.editor.Edit(j.ctx, domain.NewEditRequest(encoded, j.prompt))
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, domain.ErrNoImageGenerated
	}
	return img, nil
}
