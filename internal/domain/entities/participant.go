package entities

// Participant is a speaker tracked for the session. ID is stable for the whole session.
type Participant struct {
	ID                    string   `json:"id" yaml:"id"`
	Name                  string   `json:"name,omitempty" yaml:"name,omitempty"`
	TotalSpeakingTime     int64    `json:"totalSpeakingTime" yaml:"totalSpeakingTime"`     // milliseconds
	AverageSpeakingTime   int64    `json:"averageSpeakingTime" yaml:"averageSpeakingTime"` // milliseconds
	InterruptionsCaused   *int     `json:"interruptionsCaused,omitempty" yaml:"interruptionsCaused,omitempty"`
	InterruptionsReceived *int     `json:"interruptionsReceived,omitempty" yaml:"interruptionsReceived,omitempty"`
	Introduced            bool     `json:"introduced" yaml:"introduced"`
	Transcripts           []string `json:"transcripts" yaml:"transcripts"`
}

// NewParticipant creates a participant with zeroed speaking time and no utterances
func NewParticipant(id, name string, introduced bool) Participant {
	return Participant{
		ID:          id,
		Name:        name,
		Introduced:  introduced,
		Transcripts: make([]string, 0),
	}
}

// DisplayName returns the name, or the id when the participant is unnamed
func (p Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func (p Participant) clone() Participant {
	out := p
	out.InterruptionsCaused = cloneInt(p.InterruptionsCaused)
	out.InterruptionsReceived = cloneInt(p.InterruptionsReceived)
	out.Transcripts = append(make([]string, 0, len(p.Transcripts)), p.Transcripts...)
	return out
}
