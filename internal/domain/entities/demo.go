package entities

// DemoMeetingID identifies the static demo meeting
const DemoMeetingID = "demo"

// DemoMeeting returns the canned retrospective used by demo mode and playback.
// Every call returns a fresh value.
func DemoMeeting() *Meeting {
	m := NewMeeting(DemoMeetingID, "Demo - Retrospective")
	m.Mode = ModeDiscussion
	m.Participants = []Participant{
		{
			ID:                "p1",
			Name:              "Alex",
			Introduced:        true,
			TotalSpeakingTime: 125000,
			Transcripts: []string{
				"I think we should prioritize the user flow and validate with customers.",
				"Also, let's consider a small pilot next week.",
			},
		},
		{
			ID:                "p2",
			Name:              "Priya",
			Introduced:        true,
			TotalSpeakingTime: 45000,
			Transcripts: []string{
				"I'm concerned about the technical debt - we may need more time.",
			},
		},
		{
			ID:                "p3",
			Name:              "Sam",
			Introduced:        true,
			TotalSpeakingTime: 30000,
			Transcripts: []string{
				"Could you repeat the last part? I want to make sure I understood.",
			},
		},
	}
	return m
}
