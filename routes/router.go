package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/greenwall/config"
	"github.com/cppla/greenwall/controllers"
	"github.com/cppla/greenwall/middleware"
	"github.com/cppla/greenwall/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file so request lines do not mix
	// with application logs
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, "ok", gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db)
	noteController := controllers.NewNoteController(db)
	punchController := controllers.NewPunchController(db)

	userGroup := r.Group("/user")
	userGroup.Use(middleware.RateLimitMiddleware())
	userGroup.POST("/send-verification-code", userController.SendVerificationCode)
	userGroup.POST("/login", userController.Login)
	userGroup.POST("/logout", middleware.AuthRequired(), userController.Logout)
	userGroup.GET("/me", middleware.AuthRequired(), userController.Me)

	punchGroup := r.Group("/punch-record")
	punchGroup.POST("", punchController.Create)
	punchGroup.GET("/user/:userId", punchController.ListByUser)
	punchGroup.GET("/heatmap/user/:userId", punchController.Heatmap)

	noteGroup := r.Group("/note")
	noteGroup.POST("/save-today", noteController.SaveToday)
	// Fixed segments must be registered before the :id routes
	noteGroup.GET("/today/user/:userId", noteController.Today)
	noteGroup.GET("/stats/user/:userId", noteController.Stats)
	noteGroup.GET("/user/:userId", noteController.ListByUser)
	noteGroup.GET("/:id/user/:userId", noteController.FindOne)
	noteGroup.PUT("/:id/user/:userId", noteController.Update)
	noteGroup.DELETE("/:id/user/:userId", noteController.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "route not found")
	})

	return r
}
