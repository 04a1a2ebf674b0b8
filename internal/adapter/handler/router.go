package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/levelus/internal/infrastructure/ws"
	"github.com/johnquangdev/levelus/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	meetingHandler  *Meeting
	playbackHandler *Playback
	hub             *ws.Hub
	metrics         http.Handler
}

// NewRouter creates a new router with all handlers. hub may be nil.
func NewRouter(cfg *config.Config, meetingHandler *Meeting, playbackHandler *Playback, hub *ws.Hub) *Router {
	return &Router{
		cfg:             cfg,
		meetingHandler:  meetingHandler,
		playbackHandler: playbackHandler,
		hub:             hub,
		metrics:         promhttp.Handler(),
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(rt.metrics))

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
	rt.setupPlaybackRoutes(v1)
	if rt.hub != nil {
		v1.GET("/ws", rt.serveWS)
	}
}

// setupMeetingRoutes configures meeting routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meeting")

	meetingGroup.GET("", rt.meetingHandler.GetMeeting)
	meetingGroup.POST("/participants", rt.meetingHandler.CreateParticipant)
	meetingGroup.DELETE("/participants/:id", rt.meetingHandler.RemoveParticipant)
	meetingGroup.PUT("/participants/:id/name", rt.meetingHandler.RenameParticipant)
	meetingGroup.POST("/participants/:id/introduced", rt.meetingHandler.MarkIntroduced)
	meetingGroup.POST("/transcripts", rt.meetingHandler.PushTranscript)
	meetingGroup.PUT("/mode", rt.meetingHandler.SetMode)
	meetingGroup.POST("/analysis", rt.meetingHandler.SubmitAnalysis)
	meetingGroup.POST("/refresh", rt.meetingHandler.Refresh)
	meetingGroup.GET("/recordings", rt.meetingHandler.ListRecordings)
}

// setupPlaybackRoutes configures demo replay routes
func (rt *Router) setupPlaybackRoutes(g *echo.Group) {
	playbackGroup := g.Group("/playback")

	playbackGroup.GET("", rt.playbackHandler.GetPlayback)
	playbackGroup.POST("/enable", rt.playbackHandler.Enable)
	playbackGroup.POST("/disable", rt.playbackHandler.Disable)
	playbackGroup.POST("/reset", rt.playbackHandler.Reset)
}

// serveWS sends the current meeting and playback state, then streams updates
func (rt *Router) serveWS(c echo.Context) error {
	return rt.hub.ServeWS(c, func() []ws.Message {
		return []ws.Message{
			{Type: ws.TypeMeeting, Data: rt.meetingHandler.View()},
			{Type: ws.TypePlayback, Data: rt.playbackHandler.engine.Snapshot()},
		}
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	clients := 0
	if rt.hub != nil {
		clients = rt.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
		"meeting_id":  rt.meetingHandler.service.Store().MeetingID(),
		"remote":      rt.meetingHandler.service.Remote(),
		"ws_clients":  clients,
	})
}
