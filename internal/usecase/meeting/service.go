package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/domain/repositories"
	usecaseai "github.com/johnquangdev/levelus/internal/usecase/ai"
	usecaseErrors "github.com/johnquangdev/levelus/internal/usecase/errors"
	"github.com/johnquangdev/levelus/pkg/metrics"
)

// Remote actions, used as log and metric labels
const (
	ActionCreateParticipant = "create_participant"
	ActionSendTranscript    = "send_transcript"
	ActionAnalyzeAudio      = "analyze_audio"
	ActionFetchMeeting      = "fetch_meeting"
)

// Options configures a Service
type Options struct {
	// Live enables dual writes for participant and transcript actions
	Live bool
	// APIDisabled blocks every remote call, including analysis
	APIDisabled bool
	// MaxRetries bounds retries of advisory calls after the first attempt
	MaxRetries uint64
	// RetryInterval is the first backoff delay. Defaults to 200ms.
	RetryInterval time.Duration

	// Archive stores submitted audio before analysis. Optional.
	Archive repositories.RecordingArchive
	// Metrics is optional
	Metrics *metrics.SyncMetrics
}

// AudioUpload is a recording submitted for analysis
type AudioUpload struct {
	FileName    string
	ContentType string
	Data        io.Reader
}

// Service decides whether an action stays local or is also written to the backend
type Service struct {
	store      *Store
	api        repositories.MeetingAPI
	normalizer *usecaseai.Normalizer
	opts       Options
	logger     *zap.Logger

	analyzing atomic.Bool

	analysisMu        sync.Mutex
	analysisListeners map[int]func(analyzing bool)
	nextListenerID    int
}

// NewService creates a new sync service
func NewService(
	store *Store,
	api repositories.MeetingAPI,
	normalizer *usecaseai.Normalizer,
	opts Options,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = usecaseai.NewNormalizer(logger)
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}
	return &Service{
		store:      store,
		api:        api,
		normalizer: normalizer,
		opts:       opts,
		logger:     logger,

		analysisListeners: make(map[int]func(bool)),
	}
}

// Store returns the meeting store the service writes to
func (s *Service) Store() *Store {
	return s.store
}

// Remote reports whether participant and transcript actions reach the backend
func (s *Service) Remote() bool {
	return s.opts.Live && !s.opts.APIDisabled && s.api != nil
}

// Analyzing reports whether an audio analysis is in flight
func (s *Service) Analyzing() bool {
	return s.analyzing.Load()
}

// SubscribeAnalysis registers fn to run on every change of Analyzing. fn runs synchronously.
func (s *Service) SubscribeAnalysis(fn func(analyzing bool)) (unsubscribe func()) {
	s.analysisMu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.analysisListeners[id] = fn
	s.analysisMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.analysisMu.Lock()
			delete(s.analysisListeners, id)
			s.analysisMu.Unlock()
		})
	}
}

func (s *Service) notifyAnalysis(analyzing bool) {
	s.analysisMu.Lock()
	ids := make([]int, 0, len(s.analysisListeners))
	for id := range s.analysisListeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.analysisListeners[id])
	}
	s.analysisMu.Unlock()

	for _, fn := range fns {
		fn(analyzing)
	}
}

// CreateParticipant adds the participant locally, then registers it remotely in live mode.
// A remote failure is returned but the local participant stays.
func (s *Service) CreateParticipant(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if err := s.store.AddParticipant(id, name, name != ""); err != nil {
		return err
	}
	if !s.Remote() {
		s.opts.Metrics.RecordRemoteCall(ActionCreateParticipant, metrics.OutcomeSkipped)
		return nil
	}

	meetingID := s.store.MeetingID()
	err := s.retry(ctx, ActionCreateParticipant, func() error {
		return s.api.CreateParticipant(ctx, meetingID, normalizeID(id), name)
	})
	if err != nil {
		s.logger.Warn("⚠️ Failed to sync participant, keeping local state",
			zap.String("meeting_id", meetingID),
			zap.String("participant_id", id),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("participant synced",
		zap.String("meeting_id", meetingID),
		zap.String("participant_id", id),
	)
	return nil
}

// PushTranscript appends text locally, then sends it remotely in live mode
func (s *Service) PushTranscript(ctx context.Context, participantID, text string) error {
	if strings.TrimSpace(text) == "" {
		return appErrors.ErrValidation("text", "Transcript text cannot be empty").Wrap(usecaseErrors.ErrEmptyTranscript)
	}
	s.store.AppendTranscript(participantID, text)
	if !s.Remote() {
		s.opts.Metrics.RecordRemoteCall(ActionSendTranscript, metrics.OutcomeSkipped)
		return nil
	}

	meetingID := s.store.MeetingID()
	err := s.retry(ctx, ActionSendTranscript, func() error {
		return s.api.SendTranscript(ctx, meetingID, normalizeID(participantID), text)
	})
	if err != nil {
		s.logger.Warn("⚠️ Failed to sync transcript, keeping local state",
			zap.String("meeting_id", meetingID),
			zap.String("participant_id", participantID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RemoveParticipant is local only
func (s *Service) RemoveParticipant(_ context.Context, id string) {
	s.store.RemoveParticipant(id)
}

// RenameParticipant is local only
func (s *Service) RenameParticipant(id, name string) error {
	return s.store.RenameParticipant(id, name)
}

// SetIntroduced is local only
func (s *Service) SetIntroduced(id, name string) {
	s.store.SetIntroduced(id, name)
}

// SetMode is local only
func (s *Service) SetMode(mode entities.Mode) error {
	return s.store.SetMode(mode)
}

// SubmitAudio uploads a recording for analysis and replaces the meeting with the merged result.
// Only one submission may be in flight. On any failure the store is left untouched.
func (s *Service) SubmitAudio(ctx context.Context, upload AudioUpload) (*entities.Meeting, error) {
	if s.opts.APIDisabled || s.api == nil {
		s.opts.Metrics.RecordRemoteCall(ActionAnalyzeAudio, metrics.OutcomeSkipped)
		return nil, appErrors.ErrRemoteDisabled()
	}
	if upload.Data == nil {
		return nil, appErrors.ErrInvalidArgument("Audio file is required").Wrap(usecaseErrors.ErrEmptyAudio)
	}
	if !s.analyzing.CompareAndSwap(false, true) {
		return nil, appErrors.ErrAnalysisInFlight().Wrap(usecaseErrors.ErrAnalysisInFlight)
	}
	s.notifyAnalysis(true)
	finished := false
	finish := func() {
		if finished {
			return
		}
		finished = true
		s.analyzing.Store(false)
		s.notifyAnalysis(false)
	}
	defer finish()

	audio, err := io.ReadAll(upload.Data)
	if err != nil {
		return nil, appErrors.ErrInvalidArgument("Failed to read audio file").Wrap(err)
	}
	if len(audio) == 0 {
		return nil, appErrors.ErrInvalidArgument("Audio file is empty").Wrap(usecaseErrors.ErrEmptyAudio)
	}

	current := s.store.Read()
	state, err := json.Marshal(current)
	if err != nil {
		return nil, appErrors.ErrInternal(err)
	}

	s.archive(ctx, current.ID, upload, audio)

	s.logger.Info("🎙️ Submitting meeting audio for analysis",
		zap.String("meeting_id", current.ID),
		zap.Int("size_bytes", len(audio)),
	)

	start := time.Now()
	raw, err := s.api.AnalyzeAudio(ctx, repositories.AnalysisRequest{
		MeetingID:    current.ID,
		FileName:     upload.FileName,
		ContentType:  upload.ContentType,
		Audio:        bytes.NewReader(audio),
		MeetingState: state,
	})
	s.opts.Metrics.ObserveAnalysis(time.Since(start))
	if err != nil {
		s.opts.Metrics.RecordRemoteCall(ActionAnalyzeAudio, metrics.OutcomeFailure)
		s.logger.Error("❌ Audio analysis failed",
			zap.String("meeting_id", current.ID),
			zap.Int("upstream_status", appErrors.UpstreamStatus(err)),
			zap.Error(err),
		)
		return nil, err
	}

	if ok, present := raw["ok"].(bool); present && !ok {
		s.opts.Metrics.RecordRemoteCall(ActionAnalyzeAudio, metrics.OutcomeRejected)
		rejected := appErrors.ErrAnalysisRejected(current.ID).Wrap(usecaseErrors.ErrAnalysisRejected)
		if reason := rejectionReason(raw); reason != "" {
			rejected = rejected.WithDetail("reason", reason)
		}
		s.logger.Error("❌ Analysis backend rejected the recording",
			zap.String("meeting_id", current.ID),
			zap.String("reason", rejected.Details["reason"]),
		)
		return nil, rejected
	}

	merged := usecaseai.Merge(current, s.normalizer.Normalize(raw))
	// listeners of the merged meeting must already see the analysis as finished
	finish()
	if err := s.store.ReplaceMeeting(merged); err != nil {
		return nil, err
	}
	s.opts.Metrics.RecordRemoteCall(ActionAnalyzeAudio, metrics.OutcomeSuccess)

	s.logger.Info("✅ Meeting analysis merged",
		zap.String("meeting_id", merged.ID),
		zap.Int("segments", len(merged.TranscriptSegments)),
		zap.Int("participants", len(merged.Participants)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return merged, nil
}

// Refresh replaces the local meeting with the backend's canonical copy. Outside live mode it
// returns the local meeting unchanged.
func (s *Service) Refresh(ctx context.Context) (*entities.Meeting, error) {
	if !s.Remote() {
		return s.store.Read(), nil
	}

	meetingID := s.store.MeetingID()
	var fetched *entities.Meeting
	err := s.retry(ctx, ActionFetchMeeting, func() error {
		m, err := s.api.FetchMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		fetched = m
		return nil
	})
	if err != nil {
		s.logger.Warn("⚠️ Failed to refresh meeting",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.store.ReplaceMeeting(fetched); err != nil {
		return nil, err
	}
	return s.store.Read(), nil
}

func (s *Service) archive(ctx context.Context, meetingID string, upload AudioUpload, audio []byte) {
	if s.opts.Archive == nil {
		return
	}
	key, err := s.opts.Archive.PutRecording(ctx, meetingID, upload.FileName, upload.ContentType, bytes.NewReader(audio), int64(len(audio)))
	if err != nil {
		s.logger.Warn("⚠️ Failed to archive recording, continuing with analysis",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("📦 Recording archived",
		zap.String("meeting_id", meetingID),
		zap.String("object_key", key),
	)
}

// retry runs fn with exponential backoff. Only unreachable backends and 5xx answers are retried.
func (s *Service) retry(ctx context.Context, action string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.RetryInterval
	bo.MaxInterval = 10 * s.opts.RetryInterval
	bo.MaxElapsedTime = 30 * time.Second

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		s.logger.Debug("remote call failed, will retry",
			zap.String("action", action),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, s.opts.MaxRetries), ctx))
	if err != nil {
		s.opts.Metrics.RecordRemoteCall(action, metrics.OutcomeFailure)
		return err
	}
	s.opts.Metrics.RecordRemoteCall(action, metrics.OutcomeSuccess)
	return nil
}

func retryable(err error) bool {
	if !appErrors.IsTransport(err) {
		return false
	}
	status := appErrors.UpstreamStatus(err)
	return status == 0 || status >= 500
}

func rejectionReason(raw map[string]any) string {
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
