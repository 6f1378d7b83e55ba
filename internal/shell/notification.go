package shell

import "prompt2app/internal/metrics"

type NotificationKind string

const (
	KindError NotificationKind = "error"
	KindInfo  NotificationKind = "info"
)

const (
	TitleEmptyPrompt           = "Prompt is empty"
	TitleGenerationFailed      = "App Generation Failed"
	TitleNothingToSave         = "No Code to Save"
	TitleSaved                 = "HTML Saved"
	TitleDictationError        = "Voice Input Error"
	TitleDictationNotSupported = "Voice Input Not Supported"
)

// Notification is a non-fatal message for the user, shown as a toast.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

func errorNotification(title, description string) Notification {
	return Notification{Kind: KindError, Title: title, Description: description}
}

func infoNotification(title, description string) Notification {
	return Notification{Kind: KindInfo, Title: title, Description: description}
}

func (s *Shell) notifyLocked(n Notification) {
	metrics.IncNotification(string(n.Kind), n.Title)
	s.pending = append(s.pending, n)
}
