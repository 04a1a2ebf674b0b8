package presenter

import (
	"math"
	"strings"

	"github.com/johnquangdev/levelus/internal/adapter/dto/meeting"
	"github.com/johnquangdev/levelus/internal/domain/entities"
)

// ToMeetingResponse converts a meeting snapshot to the meeting view
func ToMeetingResponse(m *entities.Meeting, remote, analyzing bool) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	byID := make(map[string]entities.Participant, len(m.Participants))
	var totalMs int64
	feed := make([]meeting.FeedEntry, 0)
	for _, p := range m.Participants {
		byID[p.ID] = p
		totalMs += p.TotalSpeakingTime
		for _, text := range p.Transcripts {
			feed = append(feed, meeting.FeedEntry{
				ParticipantID:   p.ID,
				ParticipantName: p.DisplayName(),
				Text:            text,
			})
		}
	}

	segments := make([]meeting.SegmentResponse, 0, len(m.TranscriptSegments))
	for _, s := range m.TranscriptSegments {
		name, orphaned := SpeakerName(s, byID)
		segments = append(segments, meeting.SegmentResponse{
			ID:          s.ID,
			SpeakerID:   s.SpeakerID,
			SpeakerName: name,
			Content:     s.Content,
			StartMs:     s.StartMs,
			EndMs:       s.EndMs,
			Interrupted: s.Interrupted,
			Orphaned:    orphaned,
		})
	}

	return &meeting.MeetingResponse{
		Meeting:              m,
		Segments:             segments,
		Feed:                 feed,
		TotalSpeakingSeconds: math.Round(float64(totalMs)/10) / 100,
		Remote:               remote,
		Analyzing:            analyzing,
	}
}

// SpeakerName resolves the label of a segment. A segment whose speaker is not a participant is
// orphaned and shown as Unknown Speaker, keeping a numbered placeholder when it already has one.
func SpeakerName(s entities.TranscriptSegment, participants map[string]entities.Participant) (string, bool) {
	if p, ok := participants[s.SpeakerID]; ok {
		if p.Name != "" && !entities.IsPlaceholderSpeaker(p.Name) {
			return p.Name, false
		}
		if s.SpeakerName != "" && !entities.IsPlaceholderSpeaker(s.SpeakerName) {
			return s.SpeakerName, false
		}
		return entities.UnknownSpeakerLabel, false
	}

	if strings.HasPrefix(s.SpeakerName, entities.UnknownSpeakerLabel) {
		return s.SpeakerName, true
	}
	return entities.UnknownSpeakerLabel, true
}
