package entities

import (
	"errors"
	"fmt"
)

// ErrInvalidMeeting marks a meeting that breaks a structural invariant
var ErrInvalidMeeting = errors.New("invalid meeting")

// Mode is the descriptive phase of a meeting. It does not gate any operation.
type Mode string

const (
	ModeIntro      Mode = "intro"
	ModeDiscussion Mode = "discussion"
)

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	return m == ModeIntro || m == ModeDiscussion
}

// Meeting is the canonical in-memory meeting shape every consumer reads
type Meeting struct {
	ID                  string              `json:"id" yaml:"id"`
	Title               string              `json:"title,omitempty" yaml:"title,omitempty"`
	Mode                Mode                `json:"mode,omitempty" yaml:"mode,omitempty"`
	Participants        []Participant       `json:"participants" yaml:"participants"`
	TranscriptSegments  []TranscriptSegment `json:"transcriptSegments" yaml:"transcriptSegments"`
	Interruptions       []Interruption      `json:"interruptions" yaml:"interruptions"`
	Summary             string              `json:"summary,omitempty" yaml:"summary,omitempty"`
	ImportantPoints     []string            `json:"importantPoints" yaml:"importantPoints"`
	Decisions           []string            `json:"decisions" yaml:"decisions"`
	ActionItems         []ActionItem        `json:"actionItems" yaml:"actionItems"`
	Suggestions         []Suggestion        `json:"suggestions" yaml:"suggestions"`
	Inequalities        []Inequality        `json:"inequalities" yaml:"inequalities"`
	AmplifiedTranscript string              `json:"amplifiedTranscript,omitempty" yaml:"amplifiedTranscript,omitempty"`
	FullTranscript      string              `json:"fullTranscript,omitempty" yaml:"fullTranscript,omitempty"`
	Statistics          *MeetingStatistics  `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Expectations        *Expectations       `json:"expectations,omitempty" yaml:"expectations,omitempty"`
}

// Expectations bounds the speaking time of a single participant. nil bounds are open.
type Expectations struct {
	MinSpeakingTimeMs *int64 `json:"minSpeakingTimeMs" yaml:"minSpeakingTimeMs"`
	MaxSpeakingTimeMs *int64 `json:"maxSpeakingTimeMs" yaml:"maxSpeakingTimeMs"`
}

// NewMeeting creates an empty meeting with every collection initialized
func NewMeeting(id, title string) *Meeting {
	m := &Meeting{
		ID:    id,
		Title: title,
		Mode:  ModeIntro,
	}
	m.EnsureCollections()
	return m
}

// EnsureCollections replaces nil slices with empty ones so consumers never branch on presence
func (m *Meeting) EnsureCollections() {
	if m.Participants == nil {
		m.Participants = make([]Participant, 0)
	}
	for i := range m.Participants {
		if m.Participants[i].Transcripts == nil {
			m.Participants[i].Transcripts = make([]string, 0)
		}
	}
	if m.TranscriptSegments == nil {
		m.TranscriptSegments = make([]TranscriptSegment, 0)
	}
	if m.Interruptions == nil {
		m.Interruptions = make([]Interruption, 0)
	}
	if m.ImportantPoints == nil {
		m.ImportantPoints = make([]string, 0)
	}
	if m.Decisions == nil {
		m.Decisions = make([]string, 0)
	}
	if m.ActionItems == nil {
		m.ActionItems = make([]ActionItem, 0)
	}
	if m.Suggestions == nil {
		m.Suggestions = make([]Suggestion, 0)
	}
	if m.Inequalities == nil {
		m.Inequalities = make([]Inequality, 0)
	}
}

// Validate checks the invariants every stored meeting holds: participant ids are non-empty and
// unique, speaking times are non-negative and every segment satisfies EndMs >= StartMs >= 0.
func (m *Meeting) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil", ErrInvalidMeeting)
	}
	seen := make(map[string]struct{}, len(m.Participants))
	for i, p := range m.Participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant %d has no id", ErrInvalidMeeting, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant id %q", ErrInvalidMeeting, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.TotalSpeakingTime < 0 || p.AverageSpeakingTime < 0 {
			return fmt.Errorf("%w: participant %q has negative speaking time", ErrInvalidMeeting, p.ID)
		}
	}
	for i, seg := range m.TranscriptSegments {
		if !seg.Valid() {
			return fmt.Errorf("%w: segment %d spans %d..%d ms", ErrInvalidMeeting, i, seg.StartMs, seg.EndMs)
		}
	}
	return nil
}

// FindParticipant returns the index of the participant with id, or -1
func (m *Meeting) FindParticipant(id string) int {
	for i := range m.Participants {
		if m.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. Mutating the copy never affects m.
func (m *Meeting) Clone() *Meeting {
	if m == nil {
		return nil
	}
	out := *m

	out.Participants = make([]Participant, len(m.Participants))
	for i, p := range m.Participants {
		out.Participants[i] = p.clone()
	}
	out.TranscriptSegments = append(make([]TranscriptSegment, 0, len(m.TranscriptSegments)), m.TranscriptSegments...)
	out.Interruptions = make([]Interruption, len(m.Interruptions))
	for i, in := range m.Interruptions {
		out.Interruptions[i] = in.clone()
	}
	out.ImportantPoints = append(make([]string, 0, len(m.ImportantPoints)), m.ImportantPoints...)
	out.Decisions = append(make([]string, 0, len(m.Decisions)), m.Decisions...)
	out.ActionItems = make([]ActionItem, len(m.ActionItems))
	for i, a := range m.ActionItems {
		out.ActionItems[i] = a.clone()
	}
	out.Suggestions = make([]Suggestion, len(m.Suggestions))
	for i, s := range m.Suggestions {
		out.Suggestions[i] = s.clone()
	}
	out.Inequalities = make([]Inequality, len(m.Inequalities))
	for i, q := range m.Inequalities {
		out.Inequalities[i] = q.clone()
	}
	out.Statistics = m.Statistics.Clone()
	if m.Expectations != nil {
		out.Expectations = &Expectations{
			MinSpeakingTimeMs: cloneInt64(m.Expectations.MinSpeakingTimeMs),
			MaxSpeakingTimeMs: cloneInt64(m.Expectations.MaxSpeakingTimeMs),
		}
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
