package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/levelus/internal/domain/entities"
)

func TestToMeetingResponse(t *testing.T) {
	m := entities.DemoMeeting()
	m.TranscriptSegments = []entities.TranscriptSegment{
		{ID: "s1", SpeakerID: "p1", SpeakerName: "spk_0", Content: "hello", StartMs: 0, EndMs: 1000},
		{ID: "s2", SpeakerID: "gone", SpeakerName: "Jordan", Content: "bye", StartMs: 1000, EndMs: 2000},
		{ID: "s3", SpeakerID: "unknown", SpeakerName: "Unknown Speaker #3", Content: "?", StartMs: 2000, EndMs: 2500},
	}

	resp := ToMeetingResponse(m, true, false)

	require.NotNil(t, resp)
	require.Len(t, resp.Segments, 3)
	assert.Equal(t, "Alex", resp.Segments[0].SpeakerName)
	assert.False(t, resp.Segments[0].Orphaned)
	assert.Equal(t, entities.UnknownSpeakerLabel, resp.Segments[1].SpeakerName)
	assert.True(t, resp.Segments[1].Orphaned)
	assert.Equal(t, "Unknown Speaker #3", resp.Segments[2].SpeakerName)

	require.Len(t, resp.Feed, 4)
	assert.Equal(t, "Priya", resp.Feed[2].ParticipantName)
	assert.Equal(t, 200.0, resp.TotalSpeakingSeconds)
	assert.True(t, resp.Remote)
	assert.Nil(t, ToMeetingResponse(nil, false, false))
}

func TestSpeakerName_PlaceholderParticipant(t *testing.T) {
	participants := map[string]entities.Participant{
		"spk_1": {ID: "spk_1", Name: "spk_1"},
	}

	name, orphaned := SpeakerName(entities.TranscriptSegment{SpeakerID: "spk_1", SpeakerName: "Unknown Speaker #2"}, participants)
	assert.Equal(t, "Unknown Speaker #2", name)
	assert.False(t, orphaned)

	name, _ = SpeakerName(entities.TranscriptSegment{SpeakerID: "spk_1"}, participants)
	assert.Equal(t, entities.UnknownSpeakerLabel, name)
}
