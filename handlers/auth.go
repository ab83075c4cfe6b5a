package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/utils"
)

type AuthHandler struct {
	DB *sql.DB
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var member models.Member
	err := h.DB.QueryRow(`
		SELECT id, team_id, name, nickname, COALESCE(avatar, ''), role, status, balance, password_hash
		FROM members
		WHERE nickname = $1
	`, req.Nickname).Scan(&member.ID, &member.TeamID, &member.Name, &member.Nickname,
		&member.Avatar, &member.Role, &member.Status, &member.Balance, &member.PasswordHash)

	if err == sql.ErrNoRows || (err == nil && !utils.CheckPassword(member.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	token, err := utils.GenerateAccessToken(member.ID, member.TeamID, member.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	member.PasswordHash = ""
	c.JSON(http.StatusOK, models.AuthResponse{Token: token, Member: member})
}
