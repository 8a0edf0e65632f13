package web

import (
	"BikeSharingInsight/src/service"
	"BikeSharingInsight/src/storage"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionHeader 请求和响应中携带会话 id 的头
const SessionHeader = "X-Session-ID"

// SetupRouter 注册看板接口
func SetupRouter(svc *service.Service, sessions *service.SessionStore, logger *storage.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", SessionHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &Handler{svc: svc, sessions: sessions, logger: logger}

	r.GET("/health", h.Health)
	r.GET("/logs", h.Logs)

	api := r.Group("/api/v1")
	{
		api.GET("/options", h.Options)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/tables", h.TableNames)
		api.GET("/tables/:name", h.Table)
		api.GET("/export", h.Export)
	}
	return r
}
