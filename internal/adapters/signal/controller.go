// Package signal serves the room signaling websocket.
package signal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/app"
	"github.com/dkeye/Voice/internal/auth"
	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/metrics"
)

// SessionTokenKey is where the cookie session keeps the bearer.
const SessionTokenKey = "token"

type Options struct {
	ReadLimit     int64
	PingPeriod    time.Duration
	PongWait      time.Duration
	WriteWait     time.Duration
	SendQueue     int
	MaxViolations int
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:     64 * 1024,
		PongWait:      60 * time.Second,
		PingPeriod:    54 * time.Second,
		WriteWait:     10 * time.Second,
		SendQueue:     64,
		MaxViolations: 5,
	}
}

type SignalWSController struct {
	Registry  *app.Registry
	Validator auth.Validator
	Limiter   *JoinLimiter
	Metrics   *metrics.Metrics
	Options   Options

	upgrader websocket.Upgrader
}

func NewSignalWSController(reg *app.Registry, v auth.Validator, limiter *JoinLimiter, m *metrics.Metrics, opts Options) *SignalWSController {
	return &SignalWSController{
		Registry:  reg,
		Validator: v,
		Limiter:   limiter,
		Metrics:   m,
		Options:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleSignal authenticates, upgrades and starts the pumps. Connections
// still open when ctx ends are closed.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	roomID, err := domain.ParseRoomID(c.Param("room"))
	if err != nil {
		ctl.Metrics.ConnectionRejected()
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := ctl.Validator.Validate(Bearer(c))
	if err != nil {
		ctl.Metrics.ConnectionRejected()
		log.Info().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("ws rejected")
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrUnauthorized) {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(domain.ConnectionID(uuid.NewString()), ws, ctl.Options.SendQueue)
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Str("room", string(roomID)).
		Str("user", string(userID)).Msg("new WS connection")

	stop := context.AfterFunc(ctx, conn.Close)
	sess := &peerSession{ctl: ctl, conn: conn, room: roomID, user: userID}

	go conn.writePump(ctl.Options.PingPeriod, ctl.Options.WriteWait)
	go func() {
		defer stop()
		ctl.readPump(sess)
	}()
}

// Bearer takes the token from the request, then from the cookie session.
func Bearer(c *gin.Context) string {
	if tok := auth.TokenFromRequest(c.Request); tok != "" {
		return tok
	}
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	tok, _ := sessions.Default(c).Get(SessionTokenKey).(string)
	return tok
}
