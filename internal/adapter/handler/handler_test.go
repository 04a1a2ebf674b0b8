package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/domain/repositories"
	"github.com/johnquangdev/levelus/internal/infrastructure/storage"
	meetingUsecase "github.com/johnquangdev/levelus/internal/usecase/meeting"
	"github.com/johnquangdev/levelus/internal/usecase/playback"
	"github.com/johnquangdev/levelus/pkg/ai"
	"github.com/johnquangdev/levelus/pkg/config"
	"github.com/johnquangdev/levelus/pkg/validator"
)

type stubAPI struct {
	mu             sync.Mutex
	participantErr error
	participants   []string
	analyzeResp    map[string]any
}

func (s *stubAPI) CreateParticipant(_ context.Context, _, id, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, id)
	return s.participantErr
}

func (s *stubAPI) SendTranscript(context.Context, string, string, string) error { return nil }

func (s *stubAPI) FetchMeeting(_ context.Context, meetingID string) (*entities.Meeting, error) {
	m := entities.NewMeeting(meetingID, "From backend")
	return m, nil
}

func (s *stubAPI) AnalyzeAudio(_ context.Context, req repositories.AnalysisRequest) (map[string]any, error) {
	_, _ = io.ReadAll(req.Audio)
	return s.analyzeResp, nil
}

type stubRecordings struct{}

func (stubRecordings) ListRecordings(_ context.Context, meetingID string) ([]storage.Recording, error) {
	return []storage.Recording{{Key: "recordings/" + meetingID + "/a.wav", Size: 3}}, nil
}

type testServer struct {
	echo    *echo.Echo
	api     *stubAPI
	service *meetingUsecase.Service
	engine  *playback.Engine
}

func newTestServer(t *testing.T, live bool) *testServer {
	t.Helper()
	api := &stubAPI{}
	store := meetingUsecase.NewStore(entities.NewMeeting("m1", "Weekly"), nil)
	service := meetingUsecase.NewService(store, api, nil, meetingUsecase.Options{
		Live:          live,
		RetryInterval: time.Millisecond,
	}, nil)
	engine := playback.NewEngine(entities.DemoMeeting(), playback.Options{Clock: clock.NewMock()}, nil)
	t.Cleanup(engine.Close)

	e := echo.New()
	e.Validator = validator.New()
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, NewMeetingHandler(service, stubRecordings{}, time.Second, nil), NewPlaybackHandler(engine, nil), nil).Setup(e)

	return &testServer{echo: e, api: api, service: service, engine: engine}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func TestGetMeeting(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodGet, "/v1/meeting", "")

	require.Equal(t, http.StatusOK, rec.Code)
	view := data(t, body)
	assert.Equal(t, "m1", view["meeting"].(map[string]any)["id"])
	assert.Equal(t, []any{}, view["segments"])
	assert.Equal(t, false, view["remote"])
}

func TestCreateParticipant_GeneratesID(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/v1/meeting/participants", `{"name":"Alex"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	p := data(t, body)["participant"].(map[string]any)
	_, err := uuid.Parse(p["id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, "Alex", p["name"])
	assert.Equal(t, true, p["introduced"])
	assert.Empty(t, ts.api.participants, "demo mode stays local")
}

func TestCreateParticipant_RemoteFailureKeepsParticipant(t *testing.T) {
	ts := newTestServer(t, true)
	ts.api.participantErr = appErrors.ErrTransport("create participant", http.StatusBadRequest, nil)

	rec, body := ts.do(t, http.MethodPost, "/v1/meeting/participants", `{"id":"p1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Contains(t, d["syncError"], "TRANSPORT_FAILED")
	assert.Equal(t, "p1", d["participant"].(map[string]any)["id"])
	assert.Equal(t, 0, ts.service.Store().Read().FindParticipant("p1"))
}

func TestRenameParticipant(t *testing.T) {
	ts := newTestServer(t, false)
	require.NoError(t, ts.service.CreateParticipant(context.Background(), "p1", ""))

	t.Run("renames", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodPut, "/v1/meeting/participants/p1/name", `{"name":"Priya"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Priya", ts.service.Store().Read().Participants[0].Name)
	})

	t.Run("blank name", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodPut, "/v1/meeting/participants/p1/name", `{"name":"  "}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", body["code"])
	})

	t.Run("unknown participant", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodPut, "/v1/meeting/participants/nobody/name", `{"name":"X"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodPut, "/v1/meeting/participants/p1/name", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PAYLOAD", body["code"])
	})
}

func TestParticipantLifecycle(t *testing.T) {
	ts := newTestServer(t, false)
	require.NoError(t, ts.service.CreateParticipant(context.Background(), "p1", ""))

	rec, _ := ts.do(t, http.MethodPost, "/v1/meeting/participants/p1/introduced", `{"name":"Sam"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := ts.do(t, http.MethodPost, "/v1/meeting/transcripts", `{"participantId":"p1","text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", data(t, body)["text"])

	m := ts.service.Store().Read()
	assert.True(t, m.Participants[0].Introduced)
	assert.Equal(t, "Sam", m.Participants[0].Name)
	assert.Equal(t, []string{"hello"}, m.Participants[0].Transcripts)

	rec, body = ts.do(t, http.MethodDelete, "/v1/meeting/participants/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, data(t, body)["feed"])
}

func TestPushTranscript_Blank(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/v1/meeting/transcripts", `{"participantId":"p1","text":" "}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestSetMode(t *testing.T) {
	ts := newTestServer(t, false)

	rec, _ := ts.do(t, http.MethodPut, "/v1/meeting/mode", `{"mode":"discussion"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.ModeDiscussion, ts.service.Store().Read().Mode)

	rec, _ = ts.do(t, http.MethodPut, "/v1/meeting/mode", `{"mode":"panel"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, entities.ModeDiscussion, ts.service.Store().Read().Mode)
}

func TestSubmitAnalysis(t *testing.T) {
	ts := newTestServer(t, false)
	ts.api.analyzeResp = map[string]any{
		"ok": true,
		"gemini_output": map[string]any{
			"summary": "Short sync",
			"full_transcript": []any{
				map[string]any{"speaker": "spk_0", "text": "hi", "start": 0.0, "end": 1.5},
			},
		},
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(ai.AudioField, "call.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte("RIFF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/meeting/analysis", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := ts.service.Store().Read()
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "Short sync", m.Summary)
	require.Len(t, m.TranscriptSegments, 1)
	assert.Equal(t, int64(1500), m.TranscriptSegments[0].EndMs)
}

func TestSubmitAnalysis_MissingFile(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/v1/meeting/analysis", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
}

func TestRefresh(t *testing.T) {
	ts := newTestServer(t, true)

	rec, _ := ts.do(t, http.MethodPost, "/v1/meeting/refresh", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "From backend", ts.service.Store().Read().Title)
}

func TestListRecordings(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodGet, "/v1/meeting/recordings", "")

	require.Equal(t, http.StatusOK, rec.Code)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "recordings/m1/a.wav", list[0].(map[string]any)["key"])
}

func TestPlaybackRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/v1/playback/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "playing", data(t, body)["state"])

	rec, body = ts.do(t, http.MethodPost, "/v1/playback/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, body)["visible"], 4)

	rec, body = ts.do(t, http.MethodPost, "/v1/playback/enable", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", body["code"])

	rec, body = ts.do(t, http.MethodPost, "/v1/playback/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", data(t, body)["state"])

	rec, body = ts.do(t, http.MethodGet, "/v1/playback", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), data(t, body)["total"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, true)

	rec, body := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "m1", body["meeting_id"])
	assert.Equal(t, true, body["remote"])

	rec, _ = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
