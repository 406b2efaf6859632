package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/civicgrid/grievance-api/internal/middleware"
	"github.com/civicgrid/grievance-api/internal/models"
	"github.com/civicgrid/grievance-api/internal/repository"
	"github.com/civicgrid/grievance-api/internal/service"
)

// Router bundles the handlers and cross-cutting dependencies needed to
// register the API surface.
type Router struct {
	Auth        *AuthHandler
	Submissions *SubmissionHandler
	Admin       *AdminHandler
	Metrics     *MetricsHandler
	AuthService *service.AuthService
	MetricsSvc  *service.MetricsService
	AuditRepo   *repository.UserRepository
}

// Register mounts every route group on the engine under the given prefix.
func (rt *Router) Register(r *gin.Engine, prefix string) {
	if rt.MetricsSvc != nil {
		r.Use(middleware.Metrics(rt.MetricsSvc))
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/refresh", rt.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(rt.AuthService), rt.Auth.Logout)
		auth.POST("/change-password", middleware.JWT(rt.AuthService), rt.Auth.ChangePassword)
	}

	me := api.Group("/me", middleware.JWT(rt.AuthService))
	{
		me.GET("", rt.Auth.Me)
		me.PUT("", rt.Auth.UpdateMe)
	}

	// Officer rating rollup is public: citizens browse it before filing.
	api.GET("/officers/:email/rating", rt.Submissions.OfficerRating)

	subs := api.Group("/submissions", middleware.JWT(rt.AuthService))
	{
		subs.POST("", middleware.RequireRoles(models.RoleCitizen), rt.Submissions.Submit)
		subs.GET("/my", middleware.RequireRoles(models.RoleCitizen), rt.Submissions.ListOwn)
		subs.GET("/assigned", middleware.RequireRoles(models.RoleOfficer), rt.Submissions.ListAssigned)
		subs.GET("/assigned/counts", middleware.RequireRoles(models.RoleOfficer), rt.Submissions.Counts)
		subs.GET("/statistics", middleware.RequireRoles(models.RoleOfficer), rt.Submissions.Statistics)
		subs.PUT("/:id/status",
			middleware.RequireRoles(models.RoleOfficer, models.RoleAdmin),
			middleware.Audit(rt.AuditRepo, models.AuditActionStatusChange, "submissions"),
			rt.Submissions.UpdateStatus)
		subs.POST("/:id/escalate", middleware.RequireRoles(models.RoleCitizen), rt.Submissions.Escalate)
		subs.POST("/:id/withdraw", middleware.RequireRoles(models.RoleCitizen), rt.Submissions.Withdraw)
		subs.POST("/:id/rating", middleware.RequireRoles(models.RoleCitizen), rt.Submissions.Rate)
		subs.DELETE("/:id",
			middleware.RequireRoles(models.RoleOfficer, models.RoleAdmin),
			middleware.Audit(rt.AuditRepo, models.AuditActionDelete, "submissions"),
			rt.Submissions.Delete)
	}

	admin := api.Group("/admin", middleware.JWT(rt.AuthService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", rt.Admin.ListUsers)
		admin.POST("/users", rt.Admin.CreateUser)
		admin.PUT("/users/:id", rt.Admin.UpdateUser)
		admin.PUT("/users/:id/role", rt.Admin.SetUserRole)
		admin.DELETE("/users/:id", rt.Admin.DeleteUser)
		admin.GET("/officers", rt.Admin.Officers)

		admin.GET("/submissions", rt.Admin.ListSubmissions)
		admin.PUT("/submissions/:id/assign",
			middleware.Audit(rt.AuditRepo, models.AuditActionAssignOfficer, "submissions"),
			rt.Admin.AssignOfficer)
		admin.PUT("/submissions/:id/deadline",
			middleware.Audit(rt.AuditRepo, models.AuditActionDeadline, "submissions"),
			rt.Admin.AssignDeadline)
		admin.PUT("/submissions/:id/message", rt.Admin.SendMessage)
		admin.GET("/submissions/counts", rt.Admin.Counts)
		admin.GET("/submissions/statistics", rt.Admin.Statistics)
	}

	r.GET("/metrics", rt.Metrics.Prometheus)
}
