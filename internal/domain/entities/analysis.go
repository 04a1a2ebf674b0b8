package entities

// Suggestion is a facilitation hint produced by the analysis backend.
// TargetSpeaker is a speaker id or nil, never an embedded object.
type Suggestion struct {
	Action           string  `json:"action" yaml:"action"`
	Reason           string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Priority         string  `json:"priority" yaml:"priority"` // low, medium, high
	TargetSpeaker    *string `json:"target_speaker" yaml:"target_speaker"`
	SuggestedMessage string  `json:"suggested_message,omitempty" yaml:"suggested_message,omitempty"`
}

func (s Suggestion) clone() Suggestion {
	out := s
	out.TargetSpeaker = cloneString(s.TargetSpeaker)
	return out
}

// Inequality flags an imbalance in participation
type Inequality struct {
	Type            string  `json:"type" yaml:"type"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	SpeakerAffected *string `json:"speaker_affected" yaml:"speaker_affected"`
	TimestampMs     *int64  `json:"timestamp_ms,omitempty" yaml:"timestamp_ms,omitempty"`
	Context         string  `json:"context,omitempty" yaml:"context,omitempty"`
}

func (q Inequality) clone() Inequality {
	out := q
	out.SpeakerAffected = cloneString(q.SpeakerAffected)
	out.TimestampMs = cloneInt64(q.TimestampMs)
	return out
}

// ActionItem is a follow-up extracted from the conversation
type ActionItem struct {
	Item  string  `json:"item" yaml:"item"`
	Owner *string `json:"owner" yaml:"owner"`
	Due   *string `json:"due,omitempty" yaml:"due,omitempty"`
}

func (a ActionItem) clone() ActionItem {
	out := a
	out.Owner = cloneString(a.Owner)
	out.Due = cloneString(a.Due)
	return out
}

// Suggestion priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// InequalityTypeUnspecified is used when the backend omits the taxonomy tag
const InequalityTypeUnspecified = "unspecified"

// MeetingStatistics holds aggregates keyed by speaker id. nil means "not computed".
type MeetingStatistics struct {
	TotalDurationMs       *int64             `json:"total_duration_ms,omitempty" yaml:"total_duration_ms,omitempty"`
	TotalSegments         *int               `json:"total_segments,omitempty" yaml:"total_segments,omitempty"`
	AverageTurnLengthMs   *int64             `json:"average_turn_length_ms,omitempty" yaml:"average_turn_length_ms,omitempty"`
	SpeakingTimeMs        map[string]int64   `json:"speaking_time_ms,omitempty" yaml:"speaking_time_ms,omitempty"`
	TurnCount             map[string]int     `json:"turn_count,omitempty" yaml:"turn_count,omitempty"`
	InterruptionsCaused   map[string]int     `json:"interruptions_caused,omitempty" yaml:"interruptions_caused,omitempty"`
	InterruptionsReceived map[string]int     `json:"interruptions_received,omitempty" yaml:"interruptions_received,omitempty"`
	SpeakingPercentage    map[string]float64 `json:"speaking_percentage,omitempty" yaml:"speaking_percentage,omitempty"`
}

// Clone deep copies the statistics, including every map
func (s *MeetingStatistics) Clone() *MeetingStatistics {
	if s == nil {
		return nil
	}
	return &MeetingStatistics{
		TotalDurationMs:       cloneInt64(s.TotalDurationMs),
		TotalSegments:         cloneInt(s.TotalSegments),
		AverageTurnLengthMs:   cloneInt64(s.AverageTurnLengthMs),
		SpeakingTimeMs:        cloneMap(s.SpeakingTimeMs),
		TurnCount:             cloneMap(s.TurnCount),
		InterruptionsCaused:   cloneMap(s.InterruptionsCaused),
		InterruptionsReceived: cloneMap(s.InterruptionsReceived),
		SpeakingPercentage:    cloneMap(s.SpeakingPercentage),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
