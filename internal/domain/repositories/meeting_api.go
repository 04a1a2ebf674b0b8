package repositories

import (
	"context"
	"io"

	"github.com/johnquangdev/levelus/internal/domain/entities"
)

// AnalysisRequest is the multipart upload sent to the analysis backend
type AnalysisRequest struct {
	MeetingID   string
	FileName    string
	ContentType string
	Audio       io.Reader
	// MeetingState is the JSON sidecar describing the current meeting. Optional.
	MeetingState []byte
}

// MeetingAPI is the remote meeting service. Every method returns an errors.AppError
// compatible value on failure: TRANSPORT_FAILED for unreachable/non-2xx and
// DECODE_FAILED for bodies that are not JSON.
type MeetingAPI interface {
	CreateParticipant(ctx context.Context, meetingID, id, name string) error
	SendTranscript(ctx context.Context, meetingID, participantID, text string) error
	FetchMeeting(ctx context.Context, meetingID string) (*entities.Meeting, error)

	// AnalyzeAudio returns the decoded response object, unvalidated
	AnalyzeAudio(ctx context.Context, req AnalysisRequest) (map[string]any, error)
}

// RecordingArchive stores submitted audio before analysis
type RecordingArchive interface {
	PutRecording(ctx context.Context, meetingID, fileName, contentType string, data io.Reader, size int64) (string, error)
}

// SnapshotPublisher fans meeting snapshots out to other processes
type SnapshotPublisher interface {
	PublishMeeting(ctx context.Context, m *entities.Meeting) error
}
