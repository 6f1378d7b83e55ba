package shell

import (
	"context"
	"fmt"
)

// Recognizer is the speech-to-text capability of the client platform.
// Start and Stop run under the shell's lock and must return promptly.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context) error
	Stop() error
}

// Unsupported is the recognizer of a platform without speech recognition.
type Unsupported struct{}

func (Unsupported) Supported() bool               { return false }
func (Unsupported) Start(_ context.Context) error { return ErrDictationUnsupported }
func (Unsupported) Stop() error                   { return nil }

// BrowserRecognizer stands for speech recognition running inside the user's
// browser. Listening happens client-side; the page reports transcripts and
// errors back through AppendTranscript and DictationFailed.
type BrowserRecognizer struct {
	Available bool
}

func (r BrowserRecognizer) Supported() bool { return r.Available }

func (r BrowserRecognizer) Start(_ context.Context) error {
	if !r.Available {
		return ErrDictationUnsupported
	}
	return nil
}

func (r BrowserRecognizer) Stop() error { return nil }

func (s *Shell) DictationSupported() bool {
	return s.recognizer.Supported()
}

func (s *Shell) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// ToggleDictation starts listening when idle and stops when listening.
// Dictation runs independently of generation.
func (s *Shell) ToggleDictation(ctx context.Context) error {
	if !s.recognizer.Supported() {
		s.mu.Lock()
		s.notifyLocked(errorNotification(TitleDictationNotSupported, "Your browser does not support voice input."))
		s.mu.Unlock()
		return ErrDictationUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listening {
		s.listening = false
		if err := s.recognizer.Stop(); err != nil {
			return fmt.Errorf("stop dictation: %w", err)
		}
		return nil
	}

	if err := s.recognizer.Start(ctx); err != nil {
		s.dictationFailedLocked(err.Error())
		return fmt.Errorf("start dictation: %w", err)
	}
	s.listening = true
	return nil
}

// AppendTranscript adds a recognized utterance to the prompt, space-joined
// when the prompt already has text, and ends the listening session.
func (s *Shell) AppendTranscript(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = false
	if transcript == "" {
		return
	}
	if s.prompt == "" {
		s.prompt = transcript
		return
	}
	s.prompt = s.prompt + " " + transcript
}

// DictationFailed reports a recognition error such as "no-speech" and resets
// dictation to idle.
func (s *Shell) DictationFailed(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dictationFailedLocked(code)
}

func (s *Shell) dictationFailedLocked(code string) {
	description := "An error occurred with voice input."
	if code == "no-speech" {
		description = "No speech detected. Please try again."
	}
	s.listening = false
	s.notifyLocked(errorNotification(TitleDictationError, description))
}
