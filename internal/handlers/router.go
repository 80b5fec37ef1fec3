package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/middleware"
	"github.com/yukikurage/questboard-api/internal/services"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Provider      identity.Provider
	MembershipTTL time.Duration
	Sync          *services.SyncService
	Assignments   *services.AssignmentService
	Votes         *services.VoteService
	Comments      *services.CommentService
	Levels        *services.LevelService
	Progress      *services.ProgressService
	Bridge        *services.LevelUpBridge
}

// Register mounts every route on r. Session middleware must already be installed.
func Register(r *gin.Engine, s Services, log *logger.Logger) {
	meHandler := NewMeHandler(s.Sync)
	assignmentHandler := NewAssignmentHandler(log, s.Assignments, s.Votes, s.Comments)
	levelHandler := NewLevelHandler(s.Levels)
	progressHandler := NewProgressHandler(s.Progress)
	eventsHandler := NewEventsHandler(log, s.Bridge)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Quest Board API is running",
		})
	})

	api := r.Group("/api")
	api.Use(middleware.RequireIdentity(s.Provider, s.MembershipTTL, log))
	{
		api.GET("/me", meHandler.GetMe)

		company := api.Group("/companies/:company_id")
		company.Use(middleware.RequireCompanyAccess(s.Sync, log))
		{
			company.GET("/assignments", assignmentHandler.ListAssignments)
			company.POST("/assignments", assignmentHandler.CreateAssignment)
			company.GET("/assignments/:id", assignmentHandler.GetAssignment)
			company.POST("/assignments/:id/vote", assignmentHandler.Vote)
			company.GET("/assignments/:id/comments", assignmentHandler.ListComments)
			company.POST("/assignments/:id/comments", assignmentHandler.CreateComment)

			company.GET("/levels", levelHandler.ListLevels)
			company.PUT("/levels", middleware.RequireCompanyAdmin(), levelHandler.ReplaceLevels)

			company.GET("/leaderboard", progressHandler.Leaderboard)
			company.GET("/progress", progressHandler.GetProgress)
			company.POST("/rewards/sync", progressHandler.SyncRewards)

			company.GET("/stats", middleware.RequireCompanyAdmin(), assignmentHandler.GetStats)
			company.GET("/events", eventsHandler.Stream)
		}
	}
}
