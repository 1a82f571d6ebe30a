package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/adapters/signal"
	"github.com/dkeye/Voice/internal/app"
	"github.com/dkeye/Voice/internal/auth"
	"github.com/dkeye/Voice/internal/config"
	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/metrics"
)

const userIDKey = "user_id"

type Deps struct {
	Registry  *app.Registry
	Signal    *signal.SignalWSController
	Validator auth.Validator
	Metrics   *metrics.Metrics
}

// AuthMiddleware rejects requests without a valid bearer and stores the
// user id in the gin context.
func AuthMiddleware(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := v.Validate(signal.Bearer(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("VoiceSessions", store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group("/api/v1")
	api.POST("/session", createSession(deps.Validator))
	api.DELETE("/session", deleteSession)
	api.GET("/rooms/:room/ws", func(c *gin.Context) {
		deps.Signal.HandleSignal(ctx, c)
	})

	authed := api.Group("", AuthMiddleware(deps.Validator))
	authed.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": deps.Registry.Rooms()})
	})
	authed.GET("/rooms/:room/participants", listParticipants(deps.Registry))

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}

type sessionRequest struct {
	Token string `json:"token"`
}

// createSession validates a bearer and keeps it in the cookie session, so
// browsers can open the websocket without a token in the URL.
func createSession(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := auth.TokenFromRequest(c.Request)
		if tok == "" {
			var req sessionRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
				return
			}
			tok = req.Token
		}
		uid, err := v.Validate(tok)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		sess := sessions.Default(c)
		sess.Set(signal.SessionTokenKey, tok)
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": uid})
	}
}

func deleteSession(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
	c.Status(http.StatusNoContent)
}

type participantView struct {
	UserID   domain.UserID       `json:"userId"`
	Role     domain.Role         `json:"role"`
	PeerID   domain.ConnectionID `json:"peerId"`
	JoinedAt int64               `json:"joinedAt"`
}

func listParticipants(reg *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := domain.ParseRoomID(c.Param("room"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		list, err := reg.Participants(roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]participantView, 0, len(list))
		for _, p := range list {
			out = append(out, participantView{
				UserID:   p.UserID,
				Role:     p.Role,
				PeerID:   p.ConnectionID,
				JoinedAt: p.JoinedAt.UnixMilli(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"room": roomID, "participants": out})
	}
}
