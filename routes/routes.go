package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/headshot-gladiators/teamops-api/handlers"
	"github.com/headshot-gladiators/teamops-api/services"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB) {
	authHandler := &handlers.AuthHandler{DB: db}

	rg.POST("/auth/login", authHandler.Login)
}

// SetupEventRoutes sets up protected event and RSVP routes.
func SetupEventRoutes(rg *gin.RouterGroup, db *sql.DB, ws *handlers.WSHandler) {
	detector := services.DetectorFromEnv()
	eventService := services.NewEventService(db, detector)
	rsvpService := services.NewRSVPService(db)

	eventHandler := handlers.NewEventHandler(eventService, ws)
	rsvpHandler := handlers.NewRSVPHandler(rsvpService, ws)

	rg.GET("/events", eventHandler.ListEvents)
	rg.POST("/events", eventHandler.CreateEvent)
	rg.PUT("/events/:id/start", eventHandler.RescheduleEvent)
	rg.POST("/events/:id/schedule", eventHandler.AppendSchedule)
	rg.POST("/events/:id/rsvp", rsvpHandler.SetRSVP)
}

// SetupFinanceRoutes sets up protected finance routes.
func SetupFinanceRoutes(rg *gin.RouterGroup, db *sql.DB, ws *handlers.WSHandler) {
	financeService := services.NewFinanceService(db)
	financeHandler := handlers.NewFinanceHandler(financeService, ws)

	rg.GET("/transactions", financeHandler.ListTransactions)
	rg.POST("/transactions", financeHandler.RecordTransaction)
	rg.GET("/finance/debtors", financeHandler.ListDebtors)
}

// SetupSnapshotRoutes sets up the protected bulk snapshot route.
func SetupSnapshotRoutes(rg *gin.RouterGroup, db *sql.DB) {
	detector := services.DetectorFromEnv()
	eventService := services.NewEventService(db, detector)
	financeService := services.NewFinanceService(db)

	snapshotHandler := handlers.NewSnapshotHandler(eventService, financeService)

	rg.GET("/init", snapshotHandler.Init)
}
