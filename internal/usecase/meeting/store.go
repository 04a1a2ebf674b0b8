package meeting

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/levelus/internal/usecase/errors"
)

// Listener receives a snapshot after every effective change. Listeners run
// synchronously and must not mutate the store.
type Listener func(snapshot *entities.Meeting)

// Store owns the single meeting of a session
type Store struct {
	// writeMu serializes mutation plus notification so listeners observe mutation order
	writeMu sync.Mutex
	mu      sync.RWMutex
	meeting *entities.Meeting

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	logger *zap.Logger
}

// NewStore creates a store seeded with a copy of initial. A nil initial yields an empty meeting.
func NewStore(initial *entities.Meeting, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := initial.Clone()
	if m == nil {
		m = entities.NewMeeting("", "")
	}
	m.EnsureCollections()
	return &Store{
		meeting:   m,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Read returns a deep copy of the current meeting
func (s *Store) Read() *entities.Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meeting.Clone()
}

// MeetingID returns the id of the current meeting
func (s *Store) MeetingID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meeting.ID
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// mutate applies fn under the write lock. fn reports whether it changed anything.
func (s *Store) mutate(fn func(m *entities.Meeting) (bool, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	changed, err := fn(s.meeting)
	var snapshot *entities.Meeting
	if changed {
		snapshot = s.meeting.Clone()
	}
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	s.notify(snapshot)
	return nil
}

func (s *Store) notify(snapshot *entities.Meeting) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		// each listener gets its own copy
		fn(snapshot.Clone())
	}
}

// normalizeID trims participant ids the same way in every operation
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

// AddParticipant appends a participant with zero speaking time. A duplicate id is a no-op.
func (s *Store) AddParticipant(id, name string, introduced bool) error {
	id = normalizeID(id)
	if id == "" {
		return appErrors.ErrValidation("id", "Participant id cannot be empty").Wrap(usecaseErrors.ErrEmptyParticipantID)
	}
	return s.mutate(func(m *entities.Meeting) (bool, error) {
		if m.FindParticipant(id) >= 0 {
			s.logger.Debug("participant already present", zap.String("participant_id", id))
			return false, nil
		}
		m.Participants = append(m.Participants, entities.NewParticipant(id, strings.TrimSpace(name), introduced))
		return true, nil
	})
}

// RemoveParticipant deletes the participant. Transcript segments that reference it are kept.
func (s *Store) RemoveParticipant(id string) {
	id = normalizeID(id)
	_ = s.mutate(func(m *entities.Meeting) (bool, error) {
		idx := m.FindParticipant(id)
		if idx < 0 {
			return false, nil
		}
		m.Participants = append(m.Participants[:idx], m.Participants[idx+1:]...)
		return true, nil
	})
}

// RenameParticipant overwrites the display name
func (s *Store) RenameParticipant(id, name string) error {
	id = normalizeID(id)
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.ErrValidation("name", "Name cannot be empty").
			WithDetail("participant_id", id).
			Wrap(usecaseErrors.ErrEmptyName)
	}
	return s.mutate(func(m *entities.Meeting) (bool, error) {
		idx := m.FindParticipant(id)
		if idx < 0 {
			return false, appErrors.ErrParticipantNotFound(id).Wrap(usecaseErrors.ErrParticipantNotFound)
		}
		if m.Participants[idx].Name == name {
			return false, nil
		}
		m.Participants[idx].Name = name
		return true, nil
	})
}

// SetIntroduced marks the participant as introduced. A non-blank name also replaces the current one.
// Unknown ids are ignored.
func (s *Store) SetIntroduced(id, name string) {
	id = normalizeID(id)
	name = strings.TrimSpace(name)
	_ = s.mutate(func(m *entities.Meeting) (bool, error) {
		idx := m.FindParticipant(id)
		if idx < 0 {
			return false, nil
		}
		p := &m.Participants[idx]
		changed := !p.Introduced
		p.Introduced = true
		if name != "" && p.Name != name {
			p.Name = name
			changed = true
		}
		return changed, nil
	})
}

// AppendTranscript adds text to the participant's local utterance list. No-op if the participant is absent.
func (s *Store) AppendTranscript(participantID, text string) {
	participantID = normalizeID(participantID)
	_ = s.mutate(func(m *entities.Meeting) (bool, error) {
		idx := m.FindParticipant(participantID)
		if idx < 0 {
			return false, nil
		}
		m.Participants[idx].Transcripts = append(m.Participants[idx].Transcripts, text)
		return true, nil
	})
}

// SetMode changes the descriptive meeting phase
func (s *Store) SetMode(mode entities.Mode) error {
	if !mode.Valid() {
		return appErrors.ErrValidation("mode", "Mode must be intro or discussion").
			WithDetail("mode", string(mode)).
			Wrap(usecaseErrors.ErrUnknownMode)
	}
	return s.mutate(func(m *entities.Meeting) (bool, error) {
		if m.Mode == mode {
			return false, nil
		}
		m.Mode = mode
		return true, nil
	})
}

// ReplaceMeeting swaps the whole meeting for a copy of next. Nothing from the previous meeting survives.
// A meeting that fails Validate is rejected and the store keeps its current state.
func (s *Store) ReplaceMeeting(next *entities.Meeting) error {
	if next == nil {
		return appErrors.ErrInvalidArgument("Meeting cannot be nil").Wrap(usecaseErrors.ErrNilMeeting)
	}
	fresh := next.Clone()
	fresh.EnsureCollections()
	if err := fresh.Validate(); err != nil {
		return appErrors.ErrInvalidArgument("Meeting violates model invariants").Wrap(err)
	}
	return s.mutate(func(m *entities.Meeting) (bool, error) {
		*m = *fresh
		return true, nil
	})
}
