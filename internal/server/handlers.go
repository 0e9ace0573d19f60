package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/shouni/gemini-image-editor/pkg/domain"
	"github.com/shouni/gemini-image-editor/pkg/editor"
	"github.com/shouni/gemini-image-editor/pkg/ingest"
	"github.com/shouni/gemini-image-editor/pkg/presets"
	"github.com/shouni/gemini-image-editor/pkg/viewstate"
)

type errorResponse struct {
	Error string          `json:"error"`
	View  *viewstate.View `json:"view,omitempty"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type presetRequest struct {
	Name string `json:"name"`
}

type urlRequest struct {
	URL string `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, ws *editor.Workspace) {
	resp := errorResponse{Error: msg}
	if ws != nil {
		v := ws.View()
		resp.View = &v
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presets.All())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace(w, r).View())
}

// handleUpload はファイル選択による取り込みです。先頭のファイルだけを使います。
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	form, err := s.parseMultipart(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), ws)
		return
	}

	items, closeAll, err := openItems(form.File["file"])
	defer closeAll()
	if err != nil {
		s.ingestFailed(w, r, ws, err)
		return
	}

	if _, err := ws.Ingestor().FromSelection(r.Context(), items); err != nil {
		s.ingestFailed(w, r, ws, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

// handlePaste はクリップボード貼り付けによる取り込みです。画像が無ければ状態は変わりません。
func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	form, err := s.parseMultipart(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), ws)
		return
	}

	items, closeAll, err := openItems(form.File["items"])
	defer closeAll()
	if err != nil {
		s.ingestFailed(w, r, ws, err)
		return
	}

	if _, err := ws.Ingestor().FromClipboard(r.Context(), items); err != nil {
		s.ingestFailed(w, r, ws, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleImageURL(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	var req urlRequest
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", ws)
		return
	}

	if _, err := ws.Ingestor().FromURL(r.Context(), req.URL); err != nil {
		s.ingestFailed(w, r, ws, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", ws)
		return
	}
	ws.SetPrompt(req.Prompt)
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	var req presetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", ws)
		return
	}
	if _, err := ws.ApplyPreset(req.Name); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), ws)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

// handleSubmit は編集を開始します。既定では受け付けた時点で 202 を返し、
// wait=1 のときは完了まで待って結果を返します。
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	wait := r.URL.Query().Get("wait") == "1"

	ctx := r.Context()
	if !wait {
		// レスポンス後も編集を続けるためリクエストのキャンセルを切り離す
		ctx = context.WithoutCancel(ctx)
	}

	job, err := ws.Begin(ctx)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, domain.ValidationMessage, ws)
		return
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, domain.BusyMessage, ws)
		return
	case errors.Is(err, editor.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error(), ws)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, domain.UserMessage(err), ws)
		return
	}

	if wait {
		if _, err := job.Run(); err != nil {
			writeError(w, http.StatusBadGateway, domain.UserMessage(err), ws)
			return
		}
		writeJSON(w, http.StatusOK, ws.View())
		return
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		// 結果は Store に反映されるので戻り値は使わない
		_, _ = job.Run()
	}()
	writeJSON(w, http.StatusAccepted, ws.View())
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, err
	}
	return r.MultipartForm, nil
}

func (s *Server) ingestFailed(w http.ResponseWriter, r *http.Request, ws *editor.Workspace, err error) {
	slog.WarnContext(r.Context(), "画像の取り込みに失敗しました", "error", err)
	if errors.Is(err, domain.ErrDecode) {
		ws.Store().SetError(domain.DecodeMessage)
	}
	writeError(w, http.StatusUnprocessableEntity, domain.UserMessage(err), ws)
}

// openItems はアップロードされたファイルを ingest.Item に変換します。
func openItems(headers []*multipart.FileHeader) ([]ingest.Item, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	items := make([]ingest.Item, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, closeAll, errors.Join(err, domain.ErrDecode)
		}
		files = append(files, f)
		items = append(items, ingest.Item{
			Name:   h.Filename,
			Type:   h.Header.Get("Content-Type"),
			Reader: f,
		})
	}
	return items, closeAll, nil
}
