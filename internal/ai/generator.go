package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"prompt2app/internal/types"
)

var (
	// ErrGenerationFailed wraps every failure of a model call: transport
	// errors, refusals, and missing or malformed output.
	ErrGenerationFailed = errors.New("generation failed")
	ErrEmptyPrompt      = errors.New("prompt is empty")
)

// AppGenerator turns a prompt into a single self-contained HTML document.
type AppGenerator interface {
	GenerateApp(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error)
}

// GeneratorConfig carries the model settings taken from config.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string // Optional OpenAI-compatible endpoint, e.g. "http://localhost:8000/v1"
	Model       string
	Temperature float32
	Timeout     time.Duration // Zero waits for the model indefinitely
	HTTPClient  *http.Client
}

type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

var _ AppGenerator = (*Generator)(nil)

func NewGenerator(cfg GeneratorConfig) *Generator {
	config := openai.DefaultConfig(cfg.APIKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		config.BaseURL = baseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4o
	}

	return &Generator{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Model reports the model name requests are sent to.
func (g *Generator) Model() string {
	return g.model
}
