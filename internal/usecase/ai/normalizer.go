package ai

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/levelus/internal/domain/entities"
)

// speaking time maps have been sent under each of these keys over time
var speakingTimeKeys = []string{"speaking_time_seconds", "speaking_time", "speaking_time_per_speaker"}

// Normalizer turns an analysis response of any known shape into a canonical meeting fragment
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a new Normalizer instance
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize never fails: missing or mistyped fields become zero values and empty collections.
// The same input always yields the same output.
func (n *Normalizer) Normalize(raw map[string]any) *entities.Meeting {
	m := entities.NewMeeting(getString(raw, "meeting_id", "id"), getString(raw, "title"))
	m.Mode = ""

	gemini, fallbackSummary := decodeGeminiOutput(raw["gemini_output"])
	stats := getMap(gemini, "meeting_statistics")
	if stats == nil {
		stats = getMap(raw, "meeting_statistics")
	}

	m.TranscriptSegments = n.segments(raw, gemini)
	m.Participants = n.participants(stats, m.TranscriptSegments)
	m.Statistics = n.statistics(stats, raw)
	m.Interruptions = n.interruptions(gemini, stats)
	m.Expectations = n.expectations(gemini, raw)

	m.Summary = getString(gemini, "summary")
	if m.Summary == "" {
		m.Summary = fallbackSummary
	}
	m.ImportantPoints = textList(getSlice(gemini, "important_points"), "point", "text")
	m.Decisions = textList(getSlice(gemini, "decisions"), "decision", "text")
	m.ActionItems = n.actionItems(getSlice(gemini, "action_items"))
	m.Suggestions = n.suggestions(getSlice(gemini, "suggestions"))
	m.Inequalities = n.inequalities(getSlice(gemini, "inequalities"))
	m.AmplifiedTranscript = getString(gemini, "amplified_transcript")

	if full, ok := gemini["full_transcript"].(string); ok && strings.TrimSpace(full) != "" {
		m.FullTranscript = strings.TrimSpace(full)
	} else {
		m.FullTranscript = renderTranscript(m.TranscriptSegments)
	}

	m.EnsureCollections()
	n.logger.Debug("normalized analysis response",
		zap.String("meeting_id", m.ID),
		zap.Int("segments", len(m.TranscriptSegments)),
		zap.Int("participants", len(m.Participants)),
	)
	return m
}

// Merge builds the meeting stored after an analysis. The fragment wins; identity and mode
// fall back to current when the fragment has none.
func Merge(current, fragment *entities.Meeting) *entities.Meeting {
	if fragment == nil {
		return current.Clone()
	}
	merged := fragment.Clone()
	if current != nil {
		if merged.ID == "" {
			merged.ID = current.ID
		}
		if merged.Title == "" {
			merged.Title = current.Title
		}
		if merged.Mode == "" {
			merged.Mode = current.Mode
		}
	}
	if merged.Mode == "" {
		merged.Mode = entities.ModeIntro
	}
	merged.EnsureCollections()
	return merged
}

func (n *Normalizer) segments(raw, gemini map[string]any) []entities.TranscriptSegment {
	items := getSlice(raw, "segments")
	if len(items) == 0 {
		items = getSlice(gemini, "full_transcript")
	}

	out := make([]entities.TranscriptSegment, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			n.logger.Debug("skipping malformed segment", zap.Int("index", i))
			continue
		}

		speakerID := getString(obj, "speaker_id", "speaker")
		if speakerID == "" {
			speakerID = entities.UnknownSpeakerID
		}
		speakerName := getString(obj, "speaker_name")
		if speakerName == "" || entities.IsPlaceholderSpeaker(speakerName) {
			speakerName = fmt.Sprintf("%s #%d", entities.UnknownSpeakerLabel, i+1)
		}

		start, _ := getMs(obj, "start_ms", "start")
		end, hasEnd := getMs(obj, "end_ms", "end")
		if start < 0 {
			start = 0
		}
		if !hasEnd || end < start {
			end = start
		}
		interrupted, _ := getBool(obj, "interrupted")

		out = append(out, entities.TranscriptSegment{
			ID:          fmt.Sprintf("%s-%d-%d", speakerID, start, i),
			SpeakerID:   speakerID,
			SpeakerName: speakerName,
			Content:     getString(obj, "text", "content"),
			StartMs:     start,
			EndMs:       end,
			Interrupted: interrupted,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out
}

func (n *Normalizer) participants(stats map[string]any, segments []entities.TranscriptSegment) []entities.Participant {
	var speaking map[string]float64
	for _, key := range speakingTimeKeys {
		if m := getMap(stats, key); m != nil {
			speaking = numberMap(m)
			break
		}
	}
	if len(speaking) == 0 {
		return make([]entities.Participant, 0)
	}

	var averageMs int64
	if avg, ok := getNumber(stats, "average_turn_length_seconds"); ok && avg > 0 {
		averageMs = secondsToMs(avg)
	}
	caused := numberMap(getMap(stats, "interruptions_caused"))
	received := numberMap(getMap(stats, "interruptions_received"))

	names := make(map[string]string)
	for _, seg := range segments {
		if _, seen := names[seg.SpeakerID]; seen {
			continue
		}
		if seg.SpeakerName != "" && !strings.HasPrefix(seg.SpeakerName, entities.UnknownSpeakerLabel+" #") {
			names[seg.SpeakerID] = seg.SpeakerName
		}
	}

	ids := make([]string, 0, len(speaking))
	for id := range speaking {
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]entities.Participant, 0, len(ids))
	for _, id := range ids {
		p := entities.NewParticipant(id, id, false)
		if name, ok := names[id]; ok {
			p.Name = name
		}
		if total := secondsToMs(speaking[id]); total > 0 {
			p.TotalSpeakingTime = total
		}
		p.AverageSpeakingTime = averageMs
		if c, ok := caused[id]; ok {
			p.InterruptionsCaused = intPtr(int(math.Round(c)))
		}
		if r, ok := received[id]; ok {
			p.InterruptionsReceived = intPtr(int(math.Round(r)))
		}
		out = append(out, p)
	}
	return out
}

func (n *Normalizer) statistics(stats, raw map[string]any) *entities.MeetingStatistics {
	if stats == nil {
		return nil
	}
	out := &entities.MeetingStatistics{}
	if ms, ok := getMs(stats, "total_duration_ms", "total_duration_seconds"); ok {
		out.TotalDurationMs = int64Ptr(ms)
	}
	if total, ok := getNumber(stats, "total_segments"); ok {
		out.TotalSegments = intPtr(int(math.Round(total)))
	} else if total, ok := getNumber(raw, "segments_processed"); ok {
		out.TotalSegments = intPtr(int(math.Round(total)))
	}
	if avg, ok := getNumber(stats, "average_turn_length_seconds"); ok {
		out.AverageTurnLengthMs = int64Ptr(secondsToMs(avg))
	}
	for _, key := range speakingTimeKeys {
		if m := getMap(stats, key); m != nil {
			out.SpeakingTimeMs = make(map[string]int64, len(m))
			for id, s := range numberMap(m) {
				out.SpeakingTimeMs[id] = secondsToMs(s)
			}
			break
		}
	}
	out.TurnCount = intMap(getMap(stats, "turn_count"))
	if out.TurnCount == nil {
		out.TurnCount = intMap(getMap(stats, "turns_per_speaker"))
	}
	out.InterruptionsCaused = intMap(getMap(stats, "interruptions_caused"))
	out.InterruptionsReceived = intMap(getMap(stats, "interruptions_received"))
	if pct := getMap(stats, "speaking_percentage"); pct != nil {
		out.SpeakingPercentage = numberMap(pct)
	}
	return out
}

func (n *Normalizer) interruptions(gemini, stats map[string]any) []entities.Interruption {
	items := getSlice(gemini, "interruptions")
	if len(items) == 0 {
		items = getSlice(stats, "interruptions")
	}

	out := make([]entities.Interruption, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		duration, ok := getMs(obj, "duration_ms", "duration_seconds")
		if !ok {
			if d, found := getNumber(obj, "duration"); found {
				duration = int64(math.Round(d))
			}
		}
		if duration <= 0 {
			n.logger.Debug("dropping interruption without duration", zap.Int("index", i))
			continue
		}

		in := entities.Interruption{
			From:     refOr(obj["from"], entities.UnknownSpeakerID),
			To:       refOr(obj["to"], entities.UnknownSpeakerID),
			Duration: duration,
		}
		if ts, ok := getMs(obj, "timestamp_ms", "timestamp_seconds"); ok {
			in.Timestamp = ts
		} else if ts, ok := getNumber(obj, "timestamp"); ok {
			in.Timestamp = int64(math.Round(ts))
		}
		if in.Timestamp < 0 {
			in.Timestamp = 0
		}
		if content := getString(obj, "content", "text"); content != "" {
			in.Content = stringPtr(content)
		}
		if recovered, ok := getBool(obj, "recovered"); ok {
			in.Recovered = &recovered
		}
		out = append(out, in)
	}
	return out
}

func (n *Normalizer) expectations(gemini, raw map[string]any) *entities.Expectations {
	obj := getMap(gemini, "expectations")
	if obj == nil {
		obj = getMap(raw, "expectations")
	}
	if obj == nil {
		return nil
	}
	out := &entities.Expectations{}
	if ms, ok := getMs(obj, "min_speaking_time_ms", "min_speaking_time_seconds"); ok {
		out.MinSpeakingTimeMs = int64Ptr(ms)
	}
	if ms, ok := getMs(obj, "max_speaking_time_ms", "max_speaking_time_seconds"); ok {
		out.MaxSpeakingTimeMs = int64Ptr(ms)
	}
	return out
}

func (n *Normalizer) actionItems(items []any) []entities.ActionItem {
	out := make([]entities.ActionItem, 0, len(items))
	for _, item := range items {
		var ai entities.ActionItem
		switch v := item.(type) {
		case string:
			ai.Item = strings.TrimSpace(v)
		case map[string]any:
			ai.Item = getString(v, "item", "title", "task", "description")
			if owner, ok := reduceRef(v["owner"]); ok {
				ai.Owner = stringPtr(owner)
			}
			if due := getString(v, "due", "due_date"); due != "" {
				ai.Due = stringPtr(due)
			}
		}
		if ai.Item == "" {
			continue
		}
		out = append(out, ai)
	}
	return out
}

func (n *Normalizer) suggestions(items []any) []entities.Suggestion {
	out := make([]entities.Suggestion, 0, len(items))
	for _, item := range items {
		var s entities.Suggestion
		switch v := item.(type) {
		case string:
			s.Action = strings.TrimSpace(v)
		case map[string]any:
			s.Action = getString(v, "action", "suggestion", "text")
			s.Reason = getString(v, "reason")
			s.Priority = strings.ToLower(getString(v, "priority"))
			if target, ok := reduceRef(v["target_speaker"]); ok {
				s.TargetSpeaker = stringPtr(target)
			}
			s.SuggestedMessage = getString(v, "suggested_message")
		}
		if s.Action == "" {
			continue
		}
		if s.Priority == "" {
			s.Priority = entities.PriorityMedium
		}
		out = append(out, s)
	}
	return out
}

func (n *Normalizer) inequalities(items []any) []entities.Inequality {
	out := make([]entities.Inequality, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := entities.Inequality{
			Type:            getString(obj, "type"),
			Description:     getString(obj, "description"),
			SpeakerAffected: stringPtr(refOr(obj["speaker_affected"], entities.UnknownSpeakerID)),
			Context:         getString(obj, "context"),
		}
		if q.Type == "" {
			q.Type = entities.InequalityTypeUnspecified
		}
		if ts, ok := getMs(obj, "timestamp_ms", "timestamp_seconds"); ok {
			q.TimestampMs = int64Ptr(ts)
		}
		out = append(out, q)
	}
	return out
}

func refOr(v any, fallback string) string {
	if ref, ok := reduceRef(v); ok {
		return ref
	}
	return fallback
}

func textList(items []any, keys ...string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := textOf(item, keys...); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func intMap(obj map[string]any) map[string]int {
	nums := numberMap(obj)
	if nums == nil {
		return nil
	}
	out := make(map[string]int, len(nums))
	for k, v := range nums {
		out[k] = int(math.Round(v))
	}
	return out
}

// renderTranscript produces "<name>: <text>" lines in segment order
func renderTranscript(segments []entities.TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(seg.SpeakerName)
		b.WriteString(": ")
		b.WriteString(seg.Content)
	}
	return b.String()
}
