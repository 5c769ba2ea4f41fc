package creepstack

import (
	"sync"

	"github.com/google/uuid"
)

// PlayerID identifies the human player the chapter is teaching.
type PlayerID int

// Permissions is a snapshot of the order permission flags.
type Permissions struct {
	CanMoveNeutralFromBackpack bool
	ExpectingStashDeposit      bool
	MovedToStash               bool
}

// Session holds the per-tutorial mutable flags shared by the stacking
// coordinator, the order filter and the sequencer. Transports may request a
// skip from their own goroutine, so access is guarded.
type Session struct {
	mu sync.RWMutex

	id       string
	playerID PlayerID
	perms    Permissions

	skipOffered   bool
	skipRequested bool
}

// NewSession creates a session for the given player with every flag cleared.
func NewSession(player PlayerID) *Session {
	return &Session{
		id:       uuid.NewString(),
		playerID: player,
	}
}

// ID returns the session identifier used in logs and client messages.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// PlayerID returns the tracked real player.
func (s *Session) PlayerID() PlayerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerID
}

// Reset clears all flags and assigns a fresh session ID. Called at chapter
// start and teardown.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	s.perms = Permissions{}
	s.skipOffered = false
	s.skipRequested = false
}

// Permissions returns a copy of the current permission flags.
func (s *Session) Permissions() Permissions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms
}

func (s *Session) SetCanMoveNeutralFromBackpack(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms.CanMoveNeutralFromBackpack = v
}

func (s *Session) SetExpectingStashDeposit(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms.ExpectingStashDeposit = v
}

// MarkMovedToStash records the one allowed stash deposit and stops expecting
// further ones.
func (s *Session) MarkMovedToStash() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms.MovedToStash = true
	s.perms.ExpectingStashDeposit = false
}

func (s *Session) MovedToStash() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.MovedToStash
}

// OfferSkip opens or closes the skip affordance. Closing it does not clear an
// already recorded request.
func (s *Session) OfferSkip(offered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipOffered = offered
}

func (s *Session) SkipOffered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipOffered
}

// RequestSkip records a skip request. It reports false when no skip is on
// offer, in which case the request is dropped.
func (s *Session) RequestSkip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.skipOffered {
		return false
	}
	s.skipRequested = true
	s.skipOffered = false
	return true
}

func (s *Session) SkipRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipRequested
}
