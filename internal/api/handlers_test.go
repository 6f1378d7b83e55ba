package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt2app/internal/ai"
	"prompt2app/internal/api"
	"prompt2app/internal/session"
	"prompt2app/internal/shell"
	"prompt2app/internal/types"
)

const calculatorHTML = "<!DOCTYPE html><html><body><h1>Calculator</h1><script>1 < 2 && 3 > 2</script></body></html>"

type mockGenerator struct {
	mu      sync.Mutex
	prompts []string

	generateApp func(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error)
}

func (m *mockGenerator) GenerateApp(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, input.Prompt)
	m.mu.Unlock()
	return m.generateApp(ctx, input)
}

func (m *mockGenerator) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

type mockLimiter struct {
	allow func(ctx context.Context, key string) bool
}

func (m *mockLimiter) Allow(ctx context.Context, key string) bool {
	return m.allow(ctx, key)
}

func succeeding() *mockGenerator {
	return &mockGenerator{
		generateApp: func(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
			if input.Prompt == "   " {
				return types.GenerateAppOutput{}, ai.ErrEmptyPrompt
			}
			return types.GenerateAppOutput{Code: calculatorHTML}, nil
		},
	}
}

func setupRouter(t *testing.T, generator *mockGenerator, limiter api.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := api.NewAPIHandler(generator, session.NewStore(generator, 10, time.Minute), limiter)
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, handler)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func createSession(t *testing.T, router *gin.Engine, dictation bool) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/session", api.CreateSessionRequest{Dictation: dictation})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[api.SessionResponse](t, w)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, dictation, resp.View.DictationSupported)
	return resp.ID
}

func TestAPI_Index(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	w := do(t, router, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `sandbox="allow-scripts allow-forms allow-popups"`)
}

func TestAPI_Health(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	w := do(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])
}

func TestAPI_Metrics(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	w := do(t, router, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prompt2app_sessions_created_total")
}

func TestAPI_GenerateApp(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		generator := succeeding()
		router := setupRouter(t, generator, nil)

		w := do(t, router, http.MethodPost, "/api/generate", types.GenerateAppInput{Prompt: "a basic calculator"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, calculatorHTML, decode[types.GenerateAppOutput](t, w).Code)
		assert.Equal(t, []string{"a basic calculator"}, generator.calls())
	})

	t.Run("missing prompt", func(t *testing.T) {
		generator := succeeding()
		router := setupRouter(t, generator, nil)

		w := do(t, router, http.MethodPost, "/api/generate", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, generator.calls())
	})

	t.Run("blank prompt", func(t *testing.T) {
		router := setupRouter(t, succeeding(), nil)

		w := do(t, router, http.MethodPost, "/api/generate", types.GenerateAppInput{Prompt: "   "})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("model error", func(t *testing.T) {
		generator := &mockGenerator{
			generateApp: func(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
				return types.GenerateAppOutput{}, ai.ErrGenerationFailed
			},
		}
		router := setupRouter(t, generator, nil)

		w := do(t, router, http.MethodPost, "/api/generate", types.GenerateAppInput{Prompt: "a basic calculator"})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Failed to generate app", decode[api.ErrorResponse](t, w).Error)
	})
}

func TestAPI_SessionFlow(t *testing.T) {
	generator := succeeding()
	router := setupRouter(t, generator, nil)
	id := createSession(t, router, false)

	w := do(t, router, http.MethodPut, "/session/"+id+"/prompt", api.SetPromptRequest{Prompt: "a basic calculator"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a basic calculator", decode[api.SessionResponse](t, w).View.Prompt)

	w = do(t, router, http.MethodPost, "/session/"+id+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[api.SessionResponse](t, w).View
	assert.Equal(t, calculatorHTML, view.Document)
	assert.True(t, view.CanSave)
	assert.Equal(t, "idle", view.State)

	w = do(t, router, http.MethodGet, "/session/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, calculatorHTML, w.Body.String())
	assert.Equal(t, "sandbox allow-scripts allow-forms allow-popups", w.Header().Get("Content-Security-Policy"))

	w = do(t, router, http.MethodGet, "/session/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, calculatorHTML, w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="prompt2app_preview.html"`, w.Header().Get("Content-Disposition"))

	w = do(t, router, http.MethodPost, "/session/"+id+"/regenerate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[api.SessionResponse](t, w).View
	require.Len(t, view.Notifications, 1)
	assert.Equal(t, shell.TitleSaved, view.Notifications[0].Title)
	assert.Equal(t, []string{"a basic calculator", "a basic calculator"}, generator.calls())

	w = do(t, router, http.MethodPost, "/session/"+id+"/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[api.SessionResponse](t, w).View
	assert.Empty(t, view.Document)
	assert.False(t, view.CanSave)

	w = do(t, router, http.MethodGet, "/session/"+id+"/download", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	errResp := decode[api.ErrorResponse](t, w)
	require.NotNil(t, errResp.View)
	require.Len(t, errResp.View.Notifications, 1)
	assert.Equal(t, shell.TitleNothingToSave, errResp.View.Notifications[0].Title)

	w = do(t, router, http.MethodGet, "/session/"+id+"/preview", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SessionGenerateEmptyPrompt(t *testing.T) {
	generator := succeeding()
	router := setupRouter(t, generator, nil)
	id := createSession(t, router, false)

	w := do(t, router, http.MethodPost, "/session/"+id+"/generate", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, generator.calls())
	errResp := decode[api.ErrorResponse](t, w)
	require.NotNil(t, errResp.View)
	require.Len(t, errResp.View.Notifications, 1)
	assert.Equal(t, shell.TitleEmptyPrompt, errResp.View.Notifications[0].Title)
}

func TestAPI_SessionGenerateFailure(t *testing.T) {
	generator := &mockGenerator{
		generateApp: func(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
			return types.GenerateAppOutput{}, assert.AnError
		},
	}
	router := setupRouter(t, generator, nil)
	id := createSession(t, router, false)
	do(t, router, http.MethodPut, "/session/"+id+"/prompt", api.SetPromptRequest{Prompt: "a basic calculator"})

	w := do(t, router, http.MethodPost, "/session/"+id+"/generate", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	errResp := decode[api.ErrorResponse](t, w)
	assert.Equal(t, "Failed to generate app", errResp.Error)
	require.NotNil(t, errResp.View)
	require.Len(t, errResp.View.Notifications, 1)
	assert.Equal(t, shell.TitleGenerationFailed, errResp.View.Notifications[0].Title)
	assert.Empty(t, errResp.View.Document)
	assert.Equal(t, "idle", errResp.View.State)
}

func TestAPI_SessionRecoversAfterGeneratorPanic(t *testing.T) {
	var n int
	generator := &mockGenerator{
		generateApp: func(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
			n++
			if n == 1 {
				panic("generator exploded")
			}
			return types.GenerateAppOutput{Code: calculatorHTML}, nil
		},
	}
	router := setupRouter(t, generator, nil)
	id := createSession(t, router, false)
	do(t, router, http.MethodPut, "/session/"+id+"/prompt", api.SetPromptRequest{Prompt: "a basic calculator"})

	w := do(t, router, http.MethodPost, "/session/"+id+"/generate", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(t, router, http.MethodPost, "/session/"+id+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[api.SessionResponse](t, w)
	assert.Equal(t, "idle", resp.View.State)
	assert.Equal(t, calculatorHTML, resp.View.Document)
}

func TestAPI_Dictation(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	t.Run("supported", func(t *testing.T) {
		id := createSession(t, router, true)
		do(t, router, http.MethodPut, "/session/"+id+"/prompt", api.SetPromptRequest{Prompt: "make a"})

		w := do(t, router, http.MethodPost, "/session/"+id+"/dictation/toggle", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[api.SessionResponse](t, w).View.Listening)

		w = do(t, router, http.MethodPost, "/session/"+id+"/dictation/result", api.DictationResultRequest{Transcript: "a to-do list"})
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[api.SessionResponse](t, w).View
		assert.Equal(t, "make a a to-do list", view.Prompt)
		assert.False(t, view.Listening)
	})

	t.Run("error", func(t *testing.T) {
		id := createSession(t, router, true)
		do(t, router, http.MethodPost, "/session/"+id+"/dictation/toggle", nil)

		w := do(t, router, http.MethodPost, "/session/"+id+"/dictation/error", api.DictationErrorRequest{Error: "no-speech"})
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[api.SessionResponse](t, w).View
		assert.False(t, view.Listening)
		require.Len(t, view.Notifications, 1)
		assert.Equal(t, "No speech detected. Please try again.", view.Notifications[0].Description)
	})

	t.Run("unsupported", func(t *testing.T) {
		id := createSession(t, router, false)

		w := do(t, router, http.MethodPost, "/session/"+id+"/dictation/toggle", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decode[api.ErrorResponse](t, w)
		require.NotNil(t, errResp.View)
		require.Len(t, errResp.View.Notifications, 1)
		assert.Equal(t, shell.TitleDictationNotSupported, errResp.View.Notifications[0].Title)
	})
}

func TestAPI_SessionNotFound(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	for _, path := range []string{"/session/missing", "/session/missing/download"} {
		w := do(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(t, router, http.MethodPost, "/session/missing/generate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_CreateSessionWithoutBody(t *testing.T) {
	router := setupRouter(t, succeeding(), nil)

	w := do(t, router, http.MethodPost, "/session", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[api.SessionResponse](t, w).View.DictationSupported)
}

func TestAPI_RateLimit(t *testing.T) {
	generator := succeeding()
	var keys []string
	limiter := &mockLimiter{
		allow: func(ctx context.Context, key string) bool {
			keys = append(keys, key)
			return len(keys) <= 1
		},
	}
	router := setupRouter(t, generator, limiter)

	w := do(t, router, http.MethodPost, "/api/generate", types.GenerateAppInput{Prompt: "a basic calculator"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/generate", types.GenerateAppInput{Prompt: "a basic calculator"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Len(t, generator.calls(), 1)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.1"}, keys)
}
