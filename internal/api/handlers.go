package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"prompt2app/internal/ai"
	"prompt2app/internal/metrics"
	"prompt2app/internal/session"
	"prompt2app/internal/shell"
	"prompt2app/internal/types"
	"prompt2app/internal/web"
)

// Limiter decides whether a client may start another generation.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	generator ai.AppGenerator
	sessions  *session.Store
	limiter   Limiter // nil disables rate limiting
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(generator ai.AppGenerator, sessions *session.Store, limiter Limiter) *APIHandler {
	return &APIHandler{
		generator: generator,
		sessions:  sessions,
		limiter:   limiter,
	}
}

type CreateSessionRequest struct {
	Dictation bool `json:"dictation"` // Whether the browser offers speech recognition
}

type SessionResponse struct {
	ID   string     `json:"id"`
	View shell.View `json:"view"`
}

type ErrorResponse struct {
	Error string      `json:"error"`
	View  *shell.View `json:"view,omitempty"`
}

type SetPromptRequest struct {
	Prompt string `json:"prompt"`
}

type DictationResultRequest struct {
	Transcript string `json:"transcript"`
}

type DictationErrorRequest struct {
	Error string `json:"error" binding:"required"` // Recognition error code, e.g. "no-speech"
}

// Index serves the browser page.
func (h *APIHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

// GenerateApp is the stateless gateway endpoint: {prompt} in, {code} out.
func (h *APIHandler) GenerateApp(c *gin.Context) {
	var req types.GenerateAppInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	out, err := h.generator.GenerateApp(c.Request.Context(), req)
	if errors.Is(err, ai.ErrEmptyPrompt) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is empty"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to generate app"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *APIHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	id, sh := h.sessions.Create(req.Dictation)
	slog.Info("session created", "session", id, "dictation", req.Dictation)
	c.JSON(http.StatusCreated, SessionResponse{ID: id, View: sh.Snapshot()})
}

func (h *APIHandler) GetSession(c *gin.Context) {
	h.withShell(c, func(sh *shell.Shell) error { return nil })
}

func (h *APIHandler) SetPrompt(c *gin.Context) {
	var req SetPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	h.withShell(c, func(sh *shell.Shell) error {
		sh.SetPrompt(req.Prompt)
		return nil
	})
}

func (h *APIHandler) Generate(c *gin.Context) {
	h.withShell(c, func(sh *shell.Shell) error {
		return sh.Generate(c.Request.Context())
	})
}

func (h *APIHandler) Regenerate(c *gin.Context) {
	h.withShell(c, func(sh *shell.Shell) error {
		return sh.Regenerate(c.Request.Context())
	})
}

func (h *APIHandler) Clear(c *gin.Context) {
	h.withShell(c, func(sh *shell.Shell) error {
		return sh.Clear()
	})
}

// Download returns the current document as an HTML file attachment.
func (h *APIHandler) Download(c *gin.Context) {
	sh, ok := h.shell(c)
	if !ok {
		return
	}
	download, err := sh.Save()
	if err != nil {
		h.respond(c, c.Param("id"), sh, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Data(http.StatusOK, download.ContentType, download.Body)
}

// Preview serves the current document on its own, sandboxed by CSP so it
// cannot reach the host page.
func (h *APIHandler) Preview(c *gin.Context) {
	sh, ok := h.shell(c)
	if !ok {
		return
	}
	document := sh.Document()
	if document == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No document generated"})
		return
	}
	c.Header("Content-Security-Policy", "sandbox "+web.PreviewSandbox)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, shell.DownloadContentType, []byte(document))
}

func (h *APIHandler) ToggleDictation(c *gin.Context) {
	h.withShell(c, func(sh *shell.Shell) error {
		return sh.ToggleDictation(c.Request.Context())
	})
}

func (h *APIHandler) DictationResult(c *gin.Context) {
	var req DictationResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	h.withShell(c, func(sh *shell.Shell) error {
		sh.AppendTranscript(req.Transcript)
		return nil
	})
}

func (h *APIHandler) DictationError(c *gin.Context) {
	var req DictationErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	h.withShell(c, func(sh *shell.Shell) error {
		sh.DictationFailed(req.Error)
		return nil
	})
}

// RateLimit rejects generation requests from clients over quota.
func (h *APIHandler) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil || h.limiter.Allow(c.Request.Context(), c.ClientIP()) {
			c.Next()
			return
		}
		metrics.IncRateLimited()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many generation requests, please slow down"})
	}
}

func (h *APIHandler) shell(c *gin.Context) (*shell.Shell, bool) {
	sh, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		return nil, false
	}
	return sh, true
}

func (h *APIHandler) withShell(c *gin.Context, op func(sh *shell.Shell) error) {
	sh, ok := h.shell(c)
	if !ok {
		return
	}
	h.respond(c, c.Param("id"), sh, op(sh))
}

func (h *APIHandler) respond(c *gin.Context, id string, sh *shell.Shell, err error) {
	view := sh.Snapshot()
	if err == nil {
		c.JSON(http.StatusOK, SessionResponse{ID: id, View: view})
		return
	}

	status := statusFor(err)
	message := err.Error()
	switch {
	case status == http.StatusBadGateway:
		message = "Failed to generate app"
	case status >= http.StatusInternalServerError:
		message = "Internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error("session operation failed", "session", id, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: message, View: &view})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shell.ErrEmptyPrompt),
		errors.Is(err, shell.ErrDictationUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, shell.ErrBusy),
		errors.Is(err, shell.ErrNothingToSave):
		return http.StatusConflict
	case errors.Is(err, shell.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
