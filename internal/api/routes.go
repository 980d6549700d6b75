package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/api/middleware"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/auth"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
)

// RouteDeps 汇总路由注册所需的协作对象。
type RouteDeps struct {
	DB            *gorm.DB
	AuthService   *auth.AuthService
	RedisClient   *redis.Client
	AsynqClient   TaskEnqueuer
	Storage       ObjectStorage
	Logger        *slog.Logger
	ClamdAddr     string
	UploadMaxSize int64

	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
}

// RegisterRoutes 注册 API 路由。
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	resumeService := resume.NewService(resume.NewRepository(deps.DB))

	authHandler := NewAuthHandler(deps.DB, deps.AuthService, deps.RedisClient, deps.Logger,
		deps.LoginRateLimitPerHour, deps.LoginLockThreshold, deps.LoginLockTTL)
	userHandler := NewUserHandler(deps.DB, deps.Storage, deps.ClamdAddr, deps.UploadMaxSize)
	resumeHandler := NewResumeHandler(resumeService, deps.AsynqClient, deps.Storage)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, nil)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService, deps.DB)
	recruiterOnly := middleware.RequireRoles(resume.RoleRecruiter)

	api := router.Group("/api")
	{
		api.GET("/ws", wsHandler.HandleConnection)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/sign-up", authHandler.SignUp)
			authGroup.POST("/sign-in", authHandler.SignIn)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/sign-out", authHandler.SignOut)
		}

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		{
			userGroup.GET("/me", userHandler.GetMe)
			userGroup.POST("/me/profile-image", userHandler.UploadProfileImage)
			userGroup.GET("/me/profile-image-link", userHandler.GetProfileImageLink)
		}

		resumeGroup := api.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:resumeId", resumeHandler.GetResumeDetail)
			resumeGroup.PATCH("/:resumeId", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:resumeId", resumeHandler.DeleteResume)
			resumeGroup.PATCH("/:resumeId/state", recruiterOnly, resumeHandler.UpdateResumeState)
			resumeGroup.GET("/:resumeId/log", recruiterOnly, resumeHandler.GetResumeStateLog)
			resumeGroup.GET("/:resumeId/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:resumeId/export-link", resumeHandler.GetExportLink)
		}
	}
}
