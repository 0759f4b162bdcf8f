package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subtext/internal/analyze"
	"subtext/internal/chat"
	"subtext/internal/search"
	"subtext/internal/upload"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	maxBytes   int64
}

func NewHTTPServer(service *Service, corsOrigin string, maxBytes int64) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, maxBytes: maxBytes}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{"stores": map[string]any{"status": "ok"}}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["stores"] = map[string]any{"status": "error", "error": err.Error()}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/analyze" {
		s.handleAnalyze(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/upload/progress" {
		writeJSON(w, http.StatusOK, s.service.Upload())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		writeJSON(w, http.StatusOK, s.service.Session())
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/reset" {
		writeJSON(w, http.StatusOK, s.service.ResetSession(r.Context()))
		return
	}

	if r.URL.Path == "/api/navigator" || strings.HasPrefix(r.URL.Path, "/api/navigator/") {
		s.handleNavigator(w, r)
		return
	}

	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/document/") {
		parts := splitPath(r.URL.Path)
		if len(parts) != 3 {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		s.handleDocument(w, parts[2])
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/chat" {
		s.handleChat(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/findings/search" {
		s.handleFindingSearch(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// handleAnalyze accepts the multipart upload and runs it through the
// pipeline. The declared media type comes from the file part; the
// pipeline decides whether it is acceptable.
func (s *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Slack for the multipart framing around the capped document.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Expected a multipart upload with a file part", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read the uploaded file", nil)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	snapshot, err := s.service.Analyze(r.Context(), header.Filename, mediaType, data)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *HTTPServer) handleNavigator(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)

	if r.Method == http.MethodGet && len(parts) == 2 {
		cursor, ok := s.service.Cursor()
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"cursor": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cursor": cursor})
		return
	}

	if r.Method != http.MethodPost || len(parts) != 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	var (
		cursor any
		ok     bool
	)
	switch parts[2] {
	case "next":
		cursor, ok = s.service.NextFinding()
	case "previous":
		cursor, ok = s.service.PreviousFinding()
	case "jump":
		var body struct {
			Index int `json:"index"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		cursor, ok = s.service.JumpToFinding(body.Index)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	if !ok {
		writeError(w, http.StatusConflict, "NO_ACTIVE_REPORT", "No report with findings is active", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cursor": cursor})
}

// handleDocument serves the artifact bytes for a live renderable
// handle. A stale or unknown handle is simply unavailable.
func (s *HTTPServer) handleDocument(w http.ResponseWriter, handleID string) {
	data, ok := s.service.Document(handleID)
	if !ok {
		writeError(w, http.StatusNotFound, "DOCUMENT_UNAVAILABLE", "Document preview unavailable", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query   string         `json:"query"`
		History []chat.Message `json:"history"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Query must not be empty", nil)
		return
	}

	reply, err := s.service.Chat(r.Context(), body.Query, body.History)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

func (s *HTTPServer) handleFindingSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, s.service.SearchFindings(search.Query{
		Text:  r.URL.Query().Get("q"),
		Limit: limit,
	}))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, upload.ErrBusy):
		return http.StatusConflict, "UPLOAD_IN_FLIGHT", "An upload is already in progress", nil
	case errors.Is(err, upload.ErrInvalidType):
		return http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF documents are accepted", nil
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusBadRequest, "FILE_TOO_LARGE", "Document exceeds the size limit", nil
	case errors.Is(err, analyze.ErrService):
		return http.StatusBadGateway, "ANALYSIS_FAILED", "Document analysis failed", nil
	case errors.Is(err, chat.ErrService):
		return http.StatusBadGateway, "CHAT_FAILED", "Chat service unavailable", nil
	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest, "REQUEST_CANCELED", "Request canceled", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
