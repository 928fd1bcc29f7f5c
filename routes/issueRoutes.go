package routes

import (
	"github.com/gin-gonic/gin"

	"govconnect-be/controllers"
	"govconnect-be/middlewares"
)

// IssueRoutes sets up the issue routes. Every mutating route passes through
// the auth middleware, and admin routes additionally through AdminOnly.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, dailyIssueLimit int) {
	issues := r.Group("/api/issues")
	{
		issues.GET("/all", ic.PublicFeed)
		issues.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(dailyIssueLimit), ic.CreateIssue)
		issues.GET("/my", middlewares.AuthMiddleware(), ic.GetMyIssues)
		issues.GET("", middlewares.AuthMiddleware(), middlewares.AdminOnly(), ic.GetAllIssues)
		issues.PUT("/:id", middlewares.AuthMiddleware(), middlewares.AdminOnly(), ic.UpdateIssueStatus)
		issues.DELETE("/:id", middlewares.AuthMiddleware(), middlewares.AdminOnly(), ic.DeleteIssue)
	}
}
