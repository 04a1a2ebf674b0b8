package meeting

import "github.com/johnquangdev/levelus/internal/domain/entities"

// SegmentResponse is a transcript segment with its speaker resolved for display
type SegmentResponse struct {
	ID          string `json:"id"`
	SpeakerID   string `json:"speakerId"`
	SpeakerName string `json:"speakerName"`
	Content     string `json:"content"`
	StartMs     int64  `json:"startMs"`
	EndMs       int64  `json:"endMs"`
	Interrupted bool   `json:"interrupted,omitempty"`
	// Orphaned is set when the speaker is no longer a participant
	Orphaned bool `json:"orphaned,omitempty"`
}

// FeedEntry is one locally captured utterance
type FeedEntry struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Text            string `json:"text"`
}

// MeetingResponse is the meeting view returned to presentation layers
type MeetingResponse struct {
	Meeting              *entities.Meeting `json:"meeting"`
	Segments             []SegmentResponse `json:"segments"`
	Feed                 []FeedEntry       `json:"feed"`
	TotalSpeakingSeconds float64           `json:"totalSpeakingSeconds"`
	Remote               bool              `json:"remote"`
	Analyzing            bool              `json:"analyzing"`
}

// ParticipantResponse is returned after a participant action
type ParticipantResponse struct {
	Participant entities.Participant `json:"participant"`
	// SyncError is set when the participant was kept locally but the backend refused it
	SyncError string `json:"syncError,omitempty"`
}

// TranscriptResponse is returned after a transcript is pushed
type TranscriptResponse struct {
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
	SyncError     string `json:"syncError,omitempty"`
}
