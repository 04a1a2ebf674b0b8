package errors

import "errors"

// Meeting errors
var (
	ErrEmptyParticipantID  = errors.New("participant id is empty")
	ErrEmptyName           = errors.New("name is empty")
	ErrEmptyTranscript     = errors.New("transcript text is empty")
	ErrUnknownMode         = errors.New("unknown meeting mode")
	ErrNilMeeting          = errors.New("meeting is nil")
	ErrParticipantNotFound = errors.New("participant not found")
)

// Analysis errors
var (
	ErrAnalysisInFlight = errors.New("analysis already in flight")
	ErrAnalysisRejected = errors.New("analysis backend reported ok=false")
	ErrEmptyAudio       = errors.New("audio upload is empty")
)

// Playback errors
var (
	ErrPlaybackDone   = errors.New("playback finished, reset required")
	ErrPlaybackClosed = errors.New("playback engine closed")
)
