package meeting

// CreateParticipantRequest represents the request to add a participant. An empty id is generated.
type CreateParticipantRequest struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=128"`
	Name string `json:"name,omitempty" validate:"omitempty,max=255"`
}

// RenameParticipantRequest represents the request to rename a participant
type RenameParticipantRequest struct {
	ID   string `param:"id" json:"-"`
	Name string `json:"name" validate:"notblank,max=255"`
}

// MarkIntroducedRequest represents the request to mark a participant introduced
type MarkIntroducedRequest struct {
	ID   string `param:"id" json:"-"`
	Name string `json:"name,omitempty" validate:"omitempty,max=255"`
}

// PushTranscriptRequest represents a finalized utterance
type PushTranscriptRequest struct {
	ParticipantID string `json:"participantId" validate:"notblank"`
	Text          string `json:"text" validate:"notblank"`
}

// SetModeRequest represents the request to switch the meeting phase
type SetModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=intro discussion"`
}
