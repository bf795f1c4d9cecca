// internal/handlers/router.go
package handlers

import (
	"questlab/internal/auth"
	"questlab/internal/middleware"
	"questlab/internal/services"
	"questlab/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	DB          *gorm.DB
	Tokens      *auth.Manager
	Users       *services.UserService
	Quests      *services.QuestService
	Submissions *services.SubmissionService
	Dashboards  *services.DashboardService
	Store       storage.Store
}

// NewRouter wires all routes onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", Register(d.Users, d.Tokens))
		public.POST("/login", Login(d.Users, d.Tokens))
		public.POST("/logout", Logout)
		public.GET("/quests", Gallery(d.Quests))
		public.GET("/quests/:id", middleware.OptionalAuth(d.Tokens), GetQuest(d.Quests, d.Users))
	}
	r.GET("/media/*key", ServeMedia(d.DB, d.Store))

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(d.Tokens))
	{
		protected.GET("/profile", GetProfile(d.Users))
		protected.PUT("/profile/role", UpdateRole(d.Users))
		protected.POST("/quests", CreateQuest(d.Quests, d.Users))
		protected.PUT("/quests/:id", UpdateQuest(d.Quests, d.Users))
		protected.POST("/quests/:id/publish", PublishQuest(d.Quests, d.Users))
		protected.DELETE("/quests/:id", DeleteQuest(d.Quests, d.Users))
		protected.GET("/quests/:id/submissions", QuestSubmissions(d.Submissions, d.Users, d.Store))
		protected.POST("/tasks/:id/submissions", Submit(d.Submissions, d.Users, d.Store))
		protected.POST("/submissions/:id/feedback", RetryFeedback(d.Submissions, d.Users, d.Store))
		protected.GET("/dashboard", GetDashboard(d.Dashboards, d.Users))
	}

	return r
}
