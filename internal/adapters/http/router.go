// Package http serves the client's local status endpoint.
package http

import (
	"crypto/rand"
	nethttp "net/http"

	"github.com/dkeye/chatcube/internal/app"
	"github.com/dkeye/chatcube/internal/config"
	"github.com/dkeye/chatcube/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	sessionName = "chatcube"
	cursorRoom  = "cursor_room"
	cursorSeen  = "cursor_seen"
)

// SessionSource is the read side of app.Session.
type SessionSource interface {
	Snapshot() app.SessionSnapshot
}

type sessionDTO struct {
	State string `json:"state"`
	app.SessionSnapshot
}

type messagesDTO struct {
	RoomID   domain.RoomID        `json:"room_id"`
	Messages []domain.ChatMessage `json:"messages"`
}

func SetupRouter(cfg *config.Config, src SessionSource, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore(cookieSecret(cfg.StatusSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: nethttp.SameSiteStrictMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/healthz", func(c *gin.Context) {
		state := src.Snapshot().State
		code := nethttp.StatusOK
		if state != domain.Connected {
			code = nethttp.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"state": state.String()})
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/session", func(c *gin.Context) {
		snap := src.Snapshot()
		c.JSON(nethttp.StatusOK, sessionDTO{State: snap.State.String(), SessionSnapshot: snap})
	})
	api.GET("/messages", func(c *gin.Context) {
		unreadMessages(c, src)
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("status router setup")
	return r
}

// unreadMessages returns what this viewer has not fetched from the current
// room yet. The cursor resets when the room changes.
func unreadMessages(c *gin.Context, src SessionSource) {
	snap := src.Snapshot()
	if snap.Room == nil {
		c.Status(nethttp.StatusNoContent)
		return
	}
	history := snap.Room.History

	sess := sessions.Default(c)
	room, _ := sess.Get(cursorRoom).(string)
	seen, _ := sess.Get(cursorSeen).(int)
	if room != string(snap.Room.ID) || seen > len(history) {
		seen = 0
	}

	sess.Set(cursorRoom, string(snap.Room.ID))
	sess.Set(cursorSeen, len(history))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save read cursor")
		c.AbortWithStatusJSON(nethttp.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}

	c.JSON(nethttp.StatusOK, messagesDTO{
		RoomID:   snap.Room.ID,
		Messages: append([]domain.ChatMessage{}, history[seen:]...),
	})
}

func cookieSecret(secret string) []byte {
	if secret != "" {
		return []byte(secret)
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	log.Debug().Str("module", "adapters.http").Msg("no status_secret, using a random cookie key")
	return key
}
