package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"portfolio/api/internal/auth"
	"portfolio/api/internal/contact"
	"portfolio/api/internal/export"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/media"
	"portfolio/api/internal/search"
	"portfolio/api/internal/site"
	"portfolio/api/internal/util"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type HTTPServer struct {
	service    *Service
	gate       *auth.Gate
	corsOrigin string
	logger     *zap.Logger
}

func NewHTTPServer(service *Service, gate *auth.Gate, corsOrigin string, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{service: service, gate: gate, corsOrigin: corsOrigin, logger: logger}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/", s.handlePublicSite)
	r.Get("/admin", s.handleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)

		r.Get("/portfolio", s.handleGetPortfolio)
		r.Post("/portfolio", s.handlePostPortfolio)
		r.Get("/portfolio/export", s.handleExport)

		r.Get("/auth/check", s.handleAuthCheck)
		r.Post("/auth/login", s.handleAuthLogin)
		r.Post("/auth/logout", s.handleAuthLogout)

		r.Post("/contact", s.handleSubmitContact)
		r.Get("/projects/search", s.handleSearchProjects)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/contact/messages", s.handleListMessages)
			r.Post("/contact/messages/{id}/read", s.handleMarkMessageRead)
			r.Post("/media", s.handleUploadMedia)
		})
	})
	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, ready := s.service.Readiness(ctx)
	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]any{
		"ok":     ready,
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetContent(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *HTTPServer) handlePostPortfolio(w http.ResponseWriter, r *http.Request) {
	if !s.gate.CheckSession(r) {
		respondError(w, errUnauthorized)
		return
	}
	r = s.withAdmin(r)
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.service.PutContent(r.Context(), raw, true); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Data updated successfully",
	})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be one of html, pdf, docx", nil)
		return
	}
	result, err := s.service.ExportResume(r.Context(), format)
	if err != nil {
		respondError(w, err)
		return
	}
	disposition := "attachment"
	if format == export.FormatHTML {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if !s.gate.CheckSession(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true})
}

func (s *HTTPServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error processing request",
		})
		return
	}

	cookie, err := s.gate.Login(body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Error("login failed", zap.Error(err))
		}
		logger.Info("login rejected", zap.String("username", body.Username))
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
		})
		return
	}

	http.SetCookie(w, cookie)
	logger.Info("admin logged in", zap.String("username", body.Username))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
	})
}

func (s *HTTPServer) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.gate.Logout())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var body contact.Submission
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	msg, err := s.service.SubmitContact(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message sent successfully!",
		"id":      msg.ID,
	})
}

func (s *HTTPServer) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	resp := s.service.SearchProjects(r.Context(), search.Query{
		Text:  strings.TrimSpace(query.Get("q")),
		Limit: limit,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleListMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	unreadOnly, _ := strconv.ParseBool(query.Get("unread"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	messages, err := s.service.ListContactMessages(r.Context(), unreadOnly, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *HTTPServer) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := s.service.MarkContactMessageRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs some room on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected multipart form with a file field", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "file is required", nil)
		return
	}
	defer file.Close()

	upload, err := s.service.UploadMedia(r.Context(), file)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func (s *HTTPServer) handlePublicSite(w http.ResponseWriter, r *http.Request) {
	doc := s.service.PublicContent(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := site.RenderPublic(w, site.NewPageData(doc, time.Now())); err != nil {
		logging.FromContext(r.Context()).Error("render public site", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := site.RenderAdmin(w, s.service.Defaults().Hero.Name); err != nil {
		logging.FromContext(r.Context()).Error("render admin", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.CheckSession(r) {
			respondError(w, errUnauthorized)
			return
		}
		next.ServeHTTP(w, s.withAdmin(r))
	})
}

// withAdmin tags the request logger with the username from the session token.
func (s *HTTPServer) withAdmin(r *http.Request) *http.Request {
	user := s.gate.SessionUser(r)
	if user == "" {
		return r
	}
	logger := logging.FromContext(r.Context()).With(zap.String("admin", user))
	return r.WithContext(logging.WithLogger(r.Context(), logger))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("")
		}
		logger := s.logger.With(zap.String("request_id", requestID))
		r = r.WithContext(logging.WithLogger(r.Context(), logger))

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	if corsOrigin != "*" {
		// Credentialed requests need an explicit origin.
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Add("Vary", "Origin")
	}
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["detail"] = details
	}
	writeJSON(w, status, response)
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
