package app

import (
	"launchpad_backend/internal/config"
	"launchpad_backend/internal/middleware"
	"launchpad_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 项目
		authGroup.POST("/projects", c.project.Create)
		authGroup.GET("/projects", c.project.List)
		authGroup.GET("/projects/:id", c.project.Get)
		authGroup.PUT("/projects/:id", c.project.Update)
		authGroup.DELETE("/projects/:id", c.project.Delete)

		// 进度
		authGroup.POST("/projects/:id/progress/initialize", c.progress.InitializeProgress)
		authGroup.GET("/projects/:id/progress", c.progress.GetProgress)
		authGroup.PUT("/projects/:id/progress/step", c.progress.UpdateStep)
		authGroup.PUT("/projects/:id/progress/phase", c.progress.UpdatePhase)
		authGroup.GET("/projects/:id/progress/summary", c.progress.GetSummary)
		authGroup.POST("/projects/:id/progress/refresh", c.progress.Refresh)
		authGroup.GET("/projects/:id/progress/stream", c.progress.Stream)

		// 推荐与风险
		authGroup.GET("/projects/:id/recommendations", c.recommendation.GetRecommendations)
		authGroup.GET("/projects/:id/recommendations/:phase", c.recommendation.GetPhaseRecommendations)
		authGroup.GET("/projects/:id/risks", c.recommendation.GetRiskAnalysis)
		authGroup.POST("/projects/:id/activity", c.recommendation.UpdateActivity)
		authGroup.POST("/projects/:id/content-suggestions", c.recommendation.GetContentSuggestions)
		authGroup.GET("/projects/:id/insights", c.recommendation.GetProgressInsights)
	}
}
