package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/activity-backend-go/internal/config"
	"github.com/jengzang/activity-backend-go/internal/handler"
	"github.com/jengzang/activity-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Activities *handler.ActivityHandler
	Sports     *handler.SportHandler
}

// SetupRouter 设置路由; ctx 结束时后台清理协程退出
func SetupRouter(ctx context.Context, cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Activity Backend API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 缩略图按内容哈希公开访问, 便于 <img> 直接加载
	r.GET("/api/v1/activities/map/:map_id", h.Activities.Map)

	// API 路由组
	api := r.Group("/api/v1", middleware.Auth(cfg.Security.JWTSecret))
	{
		api.GET("/sports", h.Sports.List)

		// 活动接口
		activities := api.Group("/activities")
		{
			activities.GET("", h.Activities.List)
			activities.POST("", h.Activities.Import)
			activities.POST("/no_gpx", h.Activities.CreateManual)
			activities.GET("/:id", h.Activities.Get)
			activities.PATCH("/:id", h.Activities.Update)
			activities.DELETE("/:id", h.Activities.Delete)
			activities.GET("/:id/chart_data", h.Activities.ChartData)
			activities.GET("/:id/gpx", h.Activities.DownloadGPX)
		}
	}

	return r
}
