package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shouni/gemini-image-editor/pkg/editor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// SessionCookie はセッション ID を保持するクッキー名です。
const SessionCookie = "editor_session"

// WorkspaceFactory は新しいセッションの Workspace を作ります。builder.AppContext が満たします。
type WorkspaceFactory interface {
	NewWorkspace() *editor.Workspace
}

// Server は編集画面の操作を HTTP で公開します。Workspace はセッションごとに一つです。
type Server struct {
	factory   WorkspaceFactory
	sessions  *cache.Cache
	maxUpload int64

	mu   sync.Mutex // セッションの取得と作成
	jobs sync.WaitGroup
}

// New は Server を作ります。
func New(factory WorkspaceFactory, sessionTTL time.Duration, maxUpload int64) *Server {
	return &Server{
		factory:   factory,
		sessions:  cache.New(sessionTTL, sessionTTL),
		maxUpload: maxUpload,
	}
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Get("/state", s.handleState)
		r.Post("/image", s.handleUpload)
		r.Post("/image/url", s.handleImageURL)
		r.Post("/paste", s.handlePaste)
		r.Put("/prompt", s.handlePrompt)
		r.Post("/prompt/preset", s.handlePreset)
		r.Post("/submit", s.handleSubmit)
	})

	return r
}

// ListenAndServe は ctx がキャンセルされるまでサーバーを動かし、その後グレースフルに停止します。
// 停止時には実行中の編集の完了も待ちます。
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTPサーバーを起動します", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		slog.Info("HTTPサーバーを停止します")
		err := srv.Shutdown(shutdownCtx)
		if waitErr := s.Wait(shutdownCtx); waitErr != nil {
			slog.Warn("実行中の編集の完了を待たずに停止しました", "error", waitErr)
		}
		return err
	})
	return g.Wait()
}

// Wait はバックグラウンドで実行中の編集がすべて終わるか ctx が終了するまで待ちます。
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// workspace はクッキーのセッションに対応する Workspace を返します。無ければ作ります。
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) *editor.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if v, found := s.sessions.Get(c.Value); found {
			if ws, ok := v.(*editor.Workspace); ok {
				// アクセスのたびに有効期限を延ばす
				s.sessions.SetDefault(c.Value, ws)
				return ws
			}
		}
	}

	id := uuid.NewString()
	ws := s.factory.NewWorkspace()
	s.sessions.SetDefault(id, ws)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.DebugContext(r.Context(), "新しいセッションを作成しました", "session", id)
	return ws
}
