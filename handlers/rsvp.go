package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/middleware"
	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/services"
)

type RSVPHandler struct {
	RSVP *services.RSVPService
	WS   *WSHandler
}

func NewRSVPHandler(rsvp *services.RSVPService, ws *WSHandler) *RSVPHandler {
	return &RSVPHandler{RSVP: rsvp, WS: ws}
}

// SetRSVP upserts the acting member's attendance for an event and returns
// the recomputed confirmed count. The acting member comes from the token,
// never from the body.
func (h *RSVPHandler) SetRSVP(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	teamID := middleware.GetTeamID(c)
	eventID := c.Param("id")

	var req models.SetRSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.RSVP.Set(c.Request.Context(), eventID, memberID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastChange(teamID, "rsvp_updated", eventID)
	c.JSON(http.StatusOK, resp)
}
