package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/domain/repositories"
	"github.com/johnquangdev/levelus/pkg/config"
)

// Multipart field names expected by the analysis endpoint
const (
	AudioField        = "meeting_audio"
	MeetingStateField = "meeting_state"
)

// maximum number of body bytes quoted in an error
const errorSnippetLimit = 512

// BackendClient talks to the remote meeting service
type BackendClient struct {
	baseURL        string
	analysisPath   string
	client         *http.Client
	analysisClient *http.Client
	logger         *zap.Logger
}

var _ repositories.MeetingAPI = (*BackendClient)(nil)

// NewBackendClient creates a client from the backend config. A nil config uses the defaults.
func NewBackendClient(cfg *config.BackendConfig, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := "http://localhost:8000"
	path := "/meetings/demo"
	timeout := 30 * time.Second
	analysisTimeout := 5 * time.Minute
	if cfg != nil {
		if cfg.URL != "" {
			base = cfg.URL
		}
		if cfg.AnalysisPath != "" {
			path = cfg.AnalysisPath
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.AnalysisTimeout > 0 {
			analysisTimeout = cfg.AnalysisTimeout
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &BackendClient{
		baseURL:        strings.TrimRight(base, "/"),
		analysisPath:   path,
		client:         &http.Client{Timeout: timeout},
		analysisClient: &http.Client{Timeout: analysisTimeout},
		logger:         logger,
	}
}

type createParticipantRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type transcriptRequest struct {
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

// CreateParticipant registers a participant with the backend
func (c *BackendClient) CreateParticipant(ctx context.Context, meetingID, id, name string) error {
	endpoint := c.meetingURL(meetingID) + "/participants"
	return c.postJSON(ctx, "create_participant", endpoint, createParticipantRequest{ID: id, Name: name})
}

// SendTranscript pushes one utterance to the backend
func (c *BackendClient) SendTranscript(ctx context.Context, meetingID, participantID, text string) error {
	endpoint := c.meetingURL(meetingID) + "/transcripts"
	return c.postJSON(ctx, "send_transcript", endpoint, transcriptRequest{ParticipantID: participantID, Text: text})
}

// FetchMeeting reads the canonical meeting held by the backend
func (c *BackendClient) FetchMeeting(ctx context.Context, meetingID string) (*entities.Meeting, error) {
	const op = "fetch_meeting"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.meetingURL(meetingID), nil)
	if err != nil {
		return nil, appErrors.ErrInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(c.client, req, op)
	if err != nil {
		return nil, err
	}

	var m entities.Meeting
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, appErrors.ErrDecode(op, err)
	}
	if m.ID == "" {
		m.ID = meetingID
	}
	m.EnsureCollections()
	if err := m.Validate(); err != nil {
		return nil, appErrors.ErrDecode(op, err)
	}
	return &m, nil
}

// AnalyzeAudio uploads a recording and returns the decoded response object.
// The envelope (ok flag, shape) is left to the caller.
func (c *BackendClient) AnalyzeAudio(ctx context.Context, in repositories.AnalysisRequest) (map[string]any, error) {
	const op = "analyze_audio"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fileName := in.FileName
	if fileName == "" {
		fileName = "meeting_audio.webm"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, AudioField, escapeQuotes(fileName)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, appErrors.ErrInternal(err)
	}
	if _, err := io.Copy(part, in.Audio); err != nil {
		return nil, appErrors.ErrInvalidArgument("Failed to read audio upload").Wrap(err)
	}
	if len(in.MeetingState) > 0 {
		if err := mw.WriteField(MeetingStateField, string(in.MeetingState)); err != nil {
			return nil, appErrors.ErrInternal(err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, appErrors.ErrInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.analysisPath, &buf)
	if err != nil {
		return nil, appErrors.ErrInternal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	c.logger.Info("📤 Uploading meeting audio for analysis",
		zap.String("meeting_id", in.MeetingID),
		zap.String("file_name", fileName),
		zap.Int("size_bytes", buf.Len()),
	)

	body, err := c.do(c.analysisClient, req, op)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, appErrors.ErrDecode(op, err)
	}
	if out == nil {
		return nil, appErrors.ErrDecode(op, fmt.Errorf("response is not a JSON object"))
	}
	return out, nil
}

func (c *BackendClient) postJSON(ctx context.Context, op, endpoint string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return appErrors.ErrInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return appErrors.ErrInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(c.client, req, op)
	return err
}

// do executes req and returns the body of a 2xx response
func (c *BackendClient) do(client *http.Client, req *http.Request, op string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, appErrors.ErrTransport(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.ErrTransport(op, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > errorSnippetLimit {
			snippet = snippet[:errorSnippetLimit]
		}
		return nil, appErrors.ErrTransport(op, resp.StatusCode,
			fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(snippet)))
	}
	return body, nil
}

func (c *BackendClient) meetingURL(meetingID string) string {
	return c.baseURL + "/api/meetings/" + url.PathEscape(meetingID)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
