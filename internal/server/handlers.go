package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hyperjump/docread/internal/config"
	"github.com/hyperjump/docread/internal/extract"
	"go.uber.org/zap"
)

type pathRequest struct {
	Path string `json:"path"`
}

type extractError struct {
	Kind    extract.Kind `json:"kind"`
	Message string       `json:"message"`
}

type extractResponse struct {
	ID    string        `json:"id"`
	Path  string        `json:"path"`
	Text  *string       `json:"text,omitempty"`
	Error *extractError `json:"error,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	id := uuid.New().String()
	s.logger.Debug("extract request", zap.String("id", id), zap.String("path", req.Path))

	text, err := s.extractor.Extract(r.Context(), req.Path)
	if err != nil {
		kind := extract.KindOf(err)
		msg := err.Error()
		var xe *extract.Error
		if errors.As(err, &xe) {
			msg = xe.Message()
		}
		s.logger.Warn("extraction failed", zap.String("id", id), zap.String("path", req.Path), zap.Error(err))
		s.respondJSON(w, statusForKind(kind, err), extractResponse{
			ID:    id,
			Path:  req.Path,
			Error: &extractError{Kind: kind, Message: msg},
		})
		return
	}
	s.respondJSON(w, http.StatusOK, extractResponse{ID: id, Path: req.Path, Text: &text})
}

// statusForKind maps an extraction failure to an HTTP status.
func statusForKind(kind extract.Kind, err error) int {
	switch kind {
	case extract.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case extract.KindIO:
		if errors.Is(err, os.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	case extract.KindConverter:
		return http.StatusBadGateway
	case extract.KindDecode, extract.KindEncodingUndetectable, extract.KindContainerParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type classifyRequest struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

type classifyResponse struct {
	Path string `json:"path"`
	extract.Classification
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	paths := req.Paths
	if req.Path != "" {
		paths = append([]string{req.Path}, paths...)
	}
	if len(paths) == 0 {
		s.respondError(w, http.StatusBadRequest, "path or paths is required")
		return
	}
	out := make([]classifyResponse, 0, len(paths))
	for _, p := range paths {
		out = append(out, classifyResponse{Path: p, Classification: extract.Classify(p)})
	}
	if req.Path != "" && len(req.Paths) == 0 {
		s.respondJSON(w, http.StatusOK, out[0])
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"extensions": extract.SupportedExtensions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"extensions": extract.SupportedExtensions(),
	}
	if s.config != nil {
		converterAvailable := false
		if info, err := os.Stat(s.config.Converter.Path); err == nil && !info.IsDir() {
			converterAvailable = true
		}
		resp["config"] = map[string]interface{}{
			"converter_path":      s.config.Converter.Path,
			"converter_available": converterAvailable,
			"converter_timeout":   s.config.Converter.Timeout.String(),
			"sample_bytes":        s.config.Text.SampleBytes,
			"scale_factor":        s.config.Text.ScaleFactor,
			"stream_threshold_mb": s.config.Text.StreamThresholdMB,
			"output_dir":          s.config.Watch.OutputDir,
		}
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	if s.stats != nil {
		resp["watch_stats"] = s.stats()
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
		var body pathRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
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

// persistWatchDirectories writes the current directory list back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
