package handler

import (
	stdErrors "errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	usecaseErrors "github.com/johnquangdev/levelus/internal/usecase/errors"
	"github.com/johnquangdev/levelus/internal/usecase/playback"
)

// Playback handles demo replay requests
type Playback struct {
	engine *playback.Engine
	logger *zap.Logger
}

// NewPlaybackHandler creates a new playback handler
func NewPlaybackHandler(engine *playback.Engine, logger *zap.Logger) *Playback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Playback{engine: engine, logger: logger}
}

// GetPlayback handles GET /v1/playback
func (h *Playback) GetPlayback(c echo.Context) error {
	return HandleSuccess(h.logger, c, h.engine.Snapshot())
}

// Enable handles POST /v1/playback/enable
func (h *Playback) Enable(c echo.Context) error {
	if err := h.engine.Enable(); err != nil {
		switch {
		case stdErrors.Is(err, usecaseErrors.ErrPlaybackDone):
			err = appErrors.ErrConflict("Playback finished, reset it first").Wrap(err)
		case stdErrors.Is(err, usecaseErrors.ErrPlaybackClosed):
			err = appErrors.ErrConflict("Playback is shutting down").Wrap(err)
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.engine.Snapshot())
}

// Disable handles POST /v1/playback/disable
func (h *Playback) Disable(c echo.Context) error {
	h.engine.Disable()
	return HandleSuccess(h.logger, c, h.engine.Snapshot())
}

// Reset handles POST /v1/playback/reset
func (h *Playback) Reset(c echo.Context) error {
	h.engine.Reset()
	return HandleSuccess(h.logger, c, h.engine.Snapshot())
}
