package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/middleware"
	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/services"
)

// SnapshotHandler serves the bulk state fetch a client performs at
// session start, and again whenever it needs to resynchronize with the
// authoritative store.
type SnapshotHandler struct {
	Events  *services.EventService
	Finance *services.FinanceService
}

func NewSnapshotHandler(events *services.EventService, finance *services.FinanceService) *SnapshotHandler {
	return &SnapshotHandler{Events: events, Finance: finance}
}

// Init returns the acting member, their team, the roster, all events with
// the member's own RSVP status and authoritative confirmed counts, the
// transaction ledger newest first, and the debtors summary derived from
// the roster balances.
func (h *SnapshotHandler) Init(c *gin.Context) {
	ctx := c.Request.Context()
	memberID := middleware.GetMemberID(c)
	teamID := middleware.GetTeamID(c)

	team, err := h.Finance.Team(ctx, teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	members, err := h.Finance.Members(ctx, teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	var me *models.Member
	for i := range members {
		if members[i].ID == memberID {
			me = &members[i]
			break
		}
	}
	if me == nil {
		respondError(c, &models.NotFoundError{Resource: "member", ID: memberID})
		return
	}

	events, err := h.Events.ListForMember(ctx, teamID, memberID, nil, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	transactions, err := h.Finance.ListTransactions(ctx, teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InitResponse{
		Member:       *me,
		Team:         *team,
		Members:      members,
		Events:       events,
		Transactions: transactions,
		Debtors:      models.DeriveDebtors(members),
	})
}
