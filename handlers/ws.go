package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// WSHandler pushes a signal to every connected client of a team whenever
// a mutation commits, telling them to re-fetch authoritative state.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	// One global connect handler: the team id comes from the session's
	// own request path, so concurrent upgrades for different teams can
	// never tag each other's session.
	m.HandleConnect(func(s *melody.Session) {
		teamID := teamIDFromPath(s.Request.URL.Path)
		s.Set("team_id", teamID)
		log.Printf("client connected to team %s", teamID)
	})

	m.HandleDisconnect(func(s *melody.Session) {
		teamID, _ := s.Get("team_id")
		log.Printf("client disconnected from team %v", teamID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("websocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// teamIDFromPath extracts the trailing team id from a ws route path
// such as /api/v1/ws/teams/:id.
func teamIDFromPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	return parts[len(parts)-1]
}

// HandleWS upgrades the request into the melody session pool.
func (h *WSHandler) HandleWS(c *gin.Context) {
	if err := h.M.HandleRequest(c.Writer, c.Request); err != nil {
		log.Printf("failed to upgrade websocket: %v", err)
	}
}

// BroadcastChange tells a team's clients that a record changed.
func (h *WSHandler) BroadcastChange(teamID, changeType, recordID string) {
	msg, err := json.Marshal(gin.H{"type": changeType, "id": recordID})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, exists := s.Get("team_id")
		return exists && id == teamID
	})
	if err != nil {
		log.Printf("error broadcasting to team %s: %v", teamID, err)
	}
}
