package entities

import "strings"

const (
	// UnknownSpeakerID is the speaker id used when upstream data names nobody
	UnknownSpeakerID = "unknown"

	// UnknownSpeakerLabel is shown for segments whose speaker is not a known participant
	UnknownSpeakerLabel = "Unknown Speaker"

	// placeholderSpeakerPrefix marks internal diarization ids such as "spk_0"
	placeholderSpeakerPrefix = "spk_"
)

// TranscriptSegment is one diarized utterance. EndMs >= StartMs >= 0.
type TranscriptSegment struct {
	ID          string `json:"id" yaml:"id"`
	SpeakerID   string `json:"speakerId" yaml:"speakerId"`
	SpeakerName string `json:"speakerName,omitempty" yaml:"speakerName,omitempty"`
	Content     string `json:"content" yaml:"content"`
	StartMs     int64  `json:"startMs" yaml:"startMs"`
	EndMs       int64  `json:"endMs" yaml:"endMs"`
	Interrupted bool   `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// DurationMs returns the segment length
func (s TranscriptSegment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// Valid checks the timing invariant
func (s TranscriptSegment) Valid() bool {
	return s.StartMs >= 0 && s.EndMs >= s.StartMs
}

// IsPlaceholderSpeaker reports whether name is an internal diarization id leaking into a display field
func IsPlaceholderSpeaker(name string) bool {
	return strings.HasPrefix(strings.TrimSpace(name), placeholderSpeakerPrefix)
}

// Interruption records one speaker cutting another off
type Interruption struct {
	From      string  `json:"from" yaml:"from"`
	To        string  `json:"to" yaml:"to"`
	Duration  int64   `json:"duration" yaml:"duration"`   // milliseconds, > 0
	Timestamp int64   `json:"timestamp" yaml:"timestamp"` // milliseconds from meeting start
	Content   *string `json:"content,omitempty" yaml:"content,omitempty"`
	Recovered *bool   `json:"recovered,omitempty" yaml:"recovered,omitempty"`
}

func (i Interruption) clone() Interruption {
	out := i
	out.Content = cloneString(i.Content)
	out.Recovered = cloneBool(i.Recovered)
	return out
}
