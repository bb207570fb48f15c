package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/synopsis/internal/config"
	"github.com/hyperjump/synopsis/internal/extract"
	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/internal/pipeline"
	"github.com/hyperjump/synopsis/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxUploadMemory  = 32 << 20
)

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("summarize request",
		zap.Int("bytes", len(req.Text)), zap.Float64("ratio", req.Ratio), zap.Bool("save", req.Save))
	sum, err := s.service.SummarizeText(r.Context(), req)
	if err != nil {
		s.respondSummarizeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSummarizeUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	req := models.SummarizeRequest{Source: header.Filename}
	if v := r.FormValue("ratio"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid ratio")
			return
		}
		req.Ratio = ratio
	}
	if v := r.FormValue("save"); v != "" {
		req.Save, _ = strconv.ParseBool(v)
	}
	for _, addr := range strings.Split(r.FormValue("email"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			req.Email = append(req.Email, addr)
		}
	}

	s.logger.Debug("summarize upload", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))
	sum, err := s.service.SummarizeContent(r.Context(), content, filepath.Ext(header.Filename), req)
	if err != nil {
		s.respondSummarizeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxListLimit)

	ctx := r.Context()
	list, err := s.storage.ListSummaries(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list summaries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountSummaries(ctx)
	if err != nil {
		s.logger.Error("count summaries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*models.Summary{}
	}
	s.respondJSON(w, http.StatusOK, &models.SummaryList{Summaries: list, Total: total, Offset: offset, Limit: limit})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	sum, err := s.storage.GetSummary(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "summary not found")
		return
	}
	if err != nil {
		s.logger.Error("get summary failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete summary request", zap.String("id", id))
	err := s.storage.DeleteSummary(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "summary not found")
		return
	}
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"default_ratio":        s.service.DefaultRatio(),
		"supported_extensions": extract.SupportedExtensions,
		"history_enabled":      s.storage != nil,
	}
	if s.storage != nil {
		count, err := s.storage.CountSummaries(r.Context())
		if err != nil {
			s.logger.Error("status: count summaries failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["summaries"] = count
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}

	if s.appConfig != nil {
		s.appConfigMu.Lock()
		cfg := s.appConfig
		configInfo := map[string]interface{}{
			"ratio":           cfg.Summary.Ratio,
			"fold_case":       cfg.Summary.FoldCaseOrDefault(),
			"max_input_bytes": cfg.Summary.MaxInputBytes,
			"parallelism":     cfg.Summary.Parallelism,
			"database_path":   cfg.Storage.DatabasePath,
			"mail_enabled":    cfg.Mail.Enabled,
			"output_dir":      cfg.Watch.OutputDir,
		}
		dbPath := cfg.Storage.DatabasePath
		s.appConfigMu.Unlock()
		if size, err := storage.DatabaseSize(dbPath); err == nil {
			resp["disk_usage_bytes"] = size
		}
		resp["config"] = configInfo
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.appConfig == nil {
		return
	}
	s.appConfigMu.Lock()
	defer s.appConfigMu.Unlock()
	s.appConfig.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.appConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondSummarizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInputTooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, extract.ErrEmptyContent):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pipeline.ErrNoStorage), errors.Is(err, pipeline.ErrMailDisabled):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidRatio):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("summarize failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
