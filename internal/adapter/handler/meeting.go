package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/adapter/dto/meeting"
	"github.com/johnquangdev/levelus/internal/adapter/presenter"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/infrastructure/storage"
	meetingUsecase "github.com/johnquangdev/levelus/internal/usecase/meeting"
	"github.com/johnquangdev/levelus/pkg/ai"
)

// RecordingLister lists archived recordings
type RecordingLister interface {
	ListRecordings(ctx context.Context, meetingID string) ([]storage.Recording, error)
}

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	service         *meetingUsecase.Service
	recordings      RecordingLister
	analysisTimeout time.Duration
	logger          *zap.Logger
}

// NewMeetingHandler creates a new meeting handler. recordings may be nil.
func NewMeetingHandler(service *meetingUsecase.Service, recordings RecordingLister, analysisTimeout time.Duration, logger *zap.Logger) *Meeting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Meeting{
		service:         service,
		recordings:      recordings,
		analysisTimeout: analysisTimeout,
		logger:          logger,
	}
}

// View returns the current meeting view
func (h *Meeting) View() *meeting.MeetingResponse {
	return presenter.ToMeetingResponse(h.service.Store().Read(), h.service.Remote(), h.service.Analyzing())
}

// GetMeeting handles GET /v1/meeting
func (h *Meeting) GetMeeting(c echo.Context) error {
	return HandleSuccess(h.logger, c, h.View())
}

// CreateParticipant handles POST /v1/meeting/participants
func (h *Meeting) CreateParticipant(c echo.Context) error {
	var req meeting.CreateParticipantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	resp := meeting.ParticipantResponse{}
	if err := h.service.CreateParticipant(c.Request().Context(), id, req.Name); err != nil {
		if !syncFailure(err) {
			return HandleError(h.logger, c, err)
		}
		resp.SyncError = err.Error()
	}

	m := h.service.Store().Read()
	idx := m.FindParticipant(id)
	if idx < 0 {
		return HandleError(h.logger, c, appErrors.ErrParticipantNotFound(id))
	}
	resp.Participant = m.Participants[idx]
	return HandleSuccess(h.logger, c, resp)
}

// RemoveParticipant handles DELETE /v1/meeting/participants/:id
func (h *Meeting) RemoveParticipant(c echo.Context) error {
	h.service.RemoveParticipant(c.Request().Context(), c.Param("id"))
	return HandleSuccess(h.logger, c, h.View())
}

// RenameParticipant handles PUT /v1/meeting/participants/:id/name
func (h *Meeting) RenameParticipant(c echo.Context) error {
	var req meeting.RenameParticipantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.RenameParticipant(req.ID, req.Name); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.View())
}

// MarkIntroduced handles POST /v1/meeting/participants/:id/introduced
func (h *Meeting) MarkIntroduced(c echo.Context) error {
	var req meeting.MarkIntroducedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	h.service.SetIntroduced(req.ID, req.Name)
	return HandleSuccess(h.logger, c, h.View())
}

// PushTranscript handles POST /v1/meeting/transcripts
func (h *Meeting) PushTranscript(c echo.Context) error {
	var req meeting.PushTranscriptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := meeting.TranscriptResponse{ParticipantID: req.ParticipantID, Text: req.Text}
	if err := h.service.PushTranscript(c.Request().Context(), req.ParticipantID, req.Text); err != nil {
		if !syncFailure(err) {
			return HandleError(h.logger, c, err)
		}
		resp.SyncError = err.Error()
	}
	return HandleSuccess(h.logger, c, resp)
}

// SetMode handles PUT /v1/meeting/mode
func (h *Meeting) SetMode(c echo.Context) error {
	var req meeting.SetModeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.SetMode(entities.Mode(req.Mode)); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.View())
}

// SubmitAnalysis handles POST /v1/meeting/analysis with a multipart meeting_audio file
func (h *Meeting) SubmitAnalysis(c echo.Context) error {
	file, err := c.FormFile(ai.AudioField)
	if err != nil {
		return HandleError(h.logger, c, appErrors.ErrInvalidArgument("Audio file is required").Wrap(err))
	}
	src, err := file.Open()
	if err != nil {
		return HandleError(h.logger, c, appErrors.ErrInvalidArgument("Failed to open audio file").Wrap(err))
	}
	defer src.Close()

	ctx := c.Request().Context()
	if h.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.analysisTimeout)
		defer cancel()
	}

	_, err = h.service.SubmitAudio(ctx, meetingUsecase.AudioUpload{
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Data:        src,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.View())
}

// Refresh handles POST /v1/meeting/refresh
func (h *Meeting) Refresh(c echo.Context) error {
	if _, err := h.service.Refresh(c.Request().Context()); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.View())
}

// ListRecordings handles GET /v1/meeting/recordings
func (h *Meeting) ListRecordings(c echo.Context) error {
	if h.recordings == nil {
		return HandleSuccess(h.logger, c, []storage.Recording{})
	}
	recordings, err := h.recordings.ListRecordings(c.Request().Context(), h.service.Store().MeetingID())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, recordings)
}

// syncFailure reports a remote error that left the optimistic local change in place
func syncFailure(err error) bool {
	return appErrors.IsTransport(err) || appErrors.IsDecode(err)
}
