package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/middleware"
	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/services"
)

type EventHandler struct {
	Events *services.EventService
	WS     *WSHandler
}

func NewEventHandler(events *services.EventService, ws *WSHandler) *EventHandler {
	return &EventHandler{Events: events, WS: ws}
}

// CreateEvent creates an event; the creator is implicitly confirmed.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.Events.Create(c.Request.Context(), memberID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastChange(event.TeamID, "event_created", event.ID)
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// ListEvents returns the team's events ordered by start, optionally
// bounded by from/to query params (RFC 3339).
func (h *EventHandler) ListEvents(c *gin.Context) {
	teamID := middleware.GetTeamID(c)
	memberID := middleware.GetMemberID(c)

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an ISO-8601 instant"})
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an ISO-8601 instant"})
			return
		}
		to = &t
	}

	events, err := h.Events.ListForMember(c.Request.Context(), teamID, memberID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// RescheduleEvent moves an event's start instant and refreshes conflicts.
func (h *EventHandler) RescheduleEvent(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	eventID := c.Param("id")

	var req struct {
		StartAt string `json:"start_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.Events.Reschedule(c.Request.Context(), memberID, eventID, req.StartAt)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastChange(event.TeamID, "event_rescheduled", event.ID)
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// AppendSchedule adds a sub-game to a multi-game event and returns the
// full ordered schedule.
func (h *EventHandler) AppendSchedule(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	teamID := middleware.GetTeamID(c)
	eventID := c.Param("id")

	var req models.AppendScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedule, err := h.Events.AppendScheduleEntry(c.Request.Context(), memberID, eventID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastChange(teamID, "schedule_updated", eventID)
	c.JSON(http.StatusOK, models.ScheduleResponse{Schedule: schedule})
}
