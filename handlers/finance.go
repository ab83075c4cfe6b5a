package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/middleware"
	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/services"
)

type FinanceHandler struct {
	Finance *services.FinanceService
	WS      *WSHandler
}

func NewFinanceHandler(finance *services.FinanceService, ws *WSHandler) *FinanceHandler {
	return &FinanceHandler{Finance: finance, WS: ws}
}

// RecordTransaction appends a ledger entry and returns the authoritative
// post-mutation budget or member balance.
func (h *FinanceHandler) RecordTransaction(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	teamID := middleware.GetTeamID(c)

	var req models.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Finance.Record(c.Request.Context(), memberID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastChange(teamID, "transaction_recorded", resp.Transaction.ID)
	c.JSON(http.StatusCreated, resp)
}

// ListTransactions returns the team's ledger, newest first.
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	teamID := middleware.GetTeamID(c)

	transactions, err := h.Finance.ListTransactions(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// ListDebtors returns members owing the team, largest debt first.
func (h *FinanceHandler) ListDebtors(c *gin.Context) {
	teamID := middleware.GetTeamID(c)

	resp, err := h.Finance.ListDebtors(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
