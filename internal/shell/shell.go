// Package shell holds the interactive state behind one browser page: the
// prompt being edited, the last generated document, and the idle/generating
// state machine that gates the page's buttons.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"prompt2app/internal/metrics"
	"prompt2app/internal/types"
)

var (
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrBusy                 = errors.New("a generation is already in progress")
	ErrGenerationFailed     = errors.New("app generation failed")
	ErrNothingToSave        = errors.New("no generated document to save")
	ErrDictationUnsupported = errors.New("dictation is not supported")
)

const (
	DownloadFilename    = "prompt2app_preview.html"
	DownloadContentType = "text/html; charset=utf-8"
)

// Gateway is the model call the shell depends on.
type Gateway interface {
	GenerateApp(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error)
}

type State int

const (
	Idle State = iota
	Generating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Download is the artifact offered by Save.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// View is a point-in-time copy of the shell, as rendered by the page.
type View struct {
	Prompt             string         `json:"prompt"`
	Document           string         `json:"document"`
	HasDocument        bool           `json:"hasDocument"`
	State              string         `json:"state"`
	Listening          bool           `json:"listening"`
	DictationSupported bool           `json:"dictationSupported"`
	CanGenerate        bool           `json:"canGenerate"`
	CanClear           bool           `json:"canClear"`
	CanSave            bool           `json:"canSave"`
	DownloadFilename   string         `json:"downloadFilename"`
	Notifications      []Notification `json:"notifications"`
}

type Shell struct {
	gateway    Gateway
	recognizer Recognizer

	mu        sync.Mutex
	prompt    string
	document  string
	state     State
	listening bool
	pending   []Notification
}

// New returns an idle shell. A nil recognizer means dictation is unavailable.
func New(gateway Gateway, recognizer Recognizer) *Shell {
	if recognizer == nil {
		recognizer = Unsupported{}
	}
	return &Shell{
		gateway:    gateway,
		recognizer: recognizer,
	}
}

func (s *Shell) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

func (s *Shell) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Document returns the current generated document, empty when absent.
func (s *Shell) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate submits the current prompt. The previous document is cleared as
// soon as the request starts and is only replaced by a successful result.
func (s *Shell) Generate(ctx context.Context) error {
	return s.generate(ctx)
}

// Regenerate re-submits the current prompt text unchanged.
func (s *Shell) Regenerate(ctx context.Context) error {
	return s.generate(ctx)
}

func (s *Shell) generate(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Generating {
		s.mu.Unlock()
		return ErrBusy
	}
	prompt := s.prompt
	if strings.TrimSpace(prompt) == "" {
		s.notifyLocked(errorNotification(TitleEmptyPrompt, "Please enter a description for your app."))
		s.mu.Unlock()
		return ErrEmptyPrompt
	}
	s.state = Generating
	s.document = ""
	s.mu.Unlock()

	// The lock is released for the model call; the Generating state alone
	// keeps a second request out.
	out, err := s.callGateway(ctx, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil && out.Code == "" {
		s.notifyLocked(errorNotification(TitleGenerationFailed, "AI did not return any code."))
		return fmt.Errorf("%w: empty document", ErrGenerationFailed)
	}
	if err != nil {
		s.notifyLocked(errorNotification(TitleGenerationFailed, "An unexpected error occurred. Please try again."))
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.document = out.Code
	return nil
}

// callGateway returns the shell to Idle even when the gateway panics. The
// panic is re-raised for the caller's recovery.
func (s *Shell) callGateway(ctx context.Context, prompt string) (types.GenerateAppOutput, error) {
	metrics.IncGenerationsInFlight()
	defer func() {
		metrics.DecGenerationsInFlight()
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()
	return s.gateway.GenerateApp(ctx, types.GenerateAppInput{Prompt: prompt})
}

// Clear drops the current document.
func (s *Shell) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Generating {
		return ErrBusy
	}
	s.document = ""
	return nil
}

// Save offers the current document as a file download.
func (s *Shell) Save() (Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Generating {
		return Download{}, ErrBusy
	}
	if s.document == "" {
		s.notifyLocked(errorNotification(TitleNothingToSave, "Please generate an app preview first."))
		return Download{}, ErrNothingToSave
	}
	s.notifyLocked(infoNotification(TitleSaved, "The generated HTML preview has been downloaded."))
	return Download{
		Filename:    DownloadFilename,
		ContentType: DownloadContentType,
		Body:        []byte(s.document),
	}, nil
}

func (s *Shell) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Idle
}

func (s *Shell) CanClear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Idle && s.document != ""
}

func (s *Shell) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Idle && s.document != ""
}

// Snapshot copies the shell state and hands over the notifications raised
// since the previous snapshot.
func (s *Shell) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := s.pending
	s.pending = nil
	if notifications == nil {
		notifications = []Notification{}
	}

	idle := s.state == Idle
	hasDocument := s.document != ""
	return View{
		Prompt:             s.prompt,
		Document:           s.document,
		HasDocument:        hasDocument,
		State:              s.state.String(),
		Listening:          s.listening,
		DictationSupported: s.recognizer.Supported(),
		CanGenerate:        idle,
		CanClear:           idle && hasDocument,
		CanSave:            idle && hasDocument,
		DownloadFilename:   DownloadFilename,
		Notifications:      notifications,
	}
}
