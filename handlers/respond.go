package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/models"
)

// respondError maps the typed failure taxonomy onto HTTP statuses. Every
// handler funnels service errors through here so the client can map the
// statuses back into the same types.
func respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		authz      *models.AuthorizationError
		state      *models.InvalidStateError
		conflict   *models.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Msg})
	case errors.As(err, &state):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": state.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Msg})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
