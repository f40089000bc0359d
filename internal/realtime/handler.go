package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

// HandlerConfig tunes accepted connections.
type HandlerConfig struct {
	SendBuffer     int
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

type authFailureRecorder interface {
	RecordAuthFailure(code string)
}

// Handler upgrades HTTP requests to websocket connections registered on a Router.
type Handler struct {
	router   *Router
	upgrader websocket.Upgrader
	cfg      HandlerConfig
	failures authFailureRecorder
	logger   *zap.Logger
}

// NewHandler constructs the websocket endpoint handler.
func NewHandler(router *Router, cfg HandlerConfig, failures authFailureRecorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		cfg:      cfg,
		failures: failures,
		logger:   logger,
	}
}

// Serve godoc
// @Summary Open a realtime connection
// @Description Upgrades to a websocket. The access token is passed in the token query parameter; an invalid token closes the socket with code 1008.
// @Tags Realtime
// @Param token query string true "Access token"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (h *Handler) Serve(c *gin.Context) {
	identityID, authErr := h.router.Authenticate(c.Query("token"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	if authErr != nil {
		if h.failures != nil {
			h.failures.RecordAuthFailure(appErrors.ErrAuthenticationFailed.Code)
		}
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, appErrors.ErrAuthenticationFailed.Message)
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	client := newClient(conn, identityID, h.cfg.SendBuffer, h.logger)
	h.router.Connect(client)

	go client.writePump()
	go client.readPump(h.router, h.cfg.MaxMessageSize)
}
