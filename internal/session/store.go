package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"prompt2app/internal/metrics"
	"prompt2app/internal/shell"
)

const (
	DefaultCapacity = 1000
	DefaultTTL      = 1 * time.Hour
)

// Store keeps one shell per browser session in memory. Sessions idle for
// longer than the TTL, or evicted by capacity, are gone for good.
type Store struct {
	gateway shell.Gateway
	shells  *expirable.LRU[string, *shell.Shell]
}

func NewStore(gateway shell.Gateway, capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		gateway: gateway,
		shells:  expirable.NewLRU[string, *shell.Shell](capacity, nil, ttl),
	}
}

// Create starts a session. dictation reports whether the client platform
// offers speech recognition.
func (s *Store) Create(dictation bool) (string, *shell.Shell) {
	id := uuid.New().String()
	sh := shell.New(s.gateway, shell.BrowserRecognizer{Available: dictation})
	s.shells.Add(id, sh)
	metrics.IncSessionsCreated()
	return id, sh
}

// Get returns the session's shell and extends its lifetime.
func (s *Store) Get(id string) (*shell.Shell, bool) {
	sh, ok := s.shells.Get(id)
	if !ok {
		return nil, false
	}
	s.shells.Add(id, sh)
	return sh, true
}

func (s *Store) Len() int {
	return s.shells.Len()
}
