package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(handler *Handler, isDebug bool) *gin.Engine {
	var r *gin.Engine
	if isDebug {
		gin.SetMode(gin.DebugMode)
		r = gin.Default()
	} else {
		gin.SetMode(gin.ReleaseMode)
		r = gin.New()
		r.Use(gin.Recovery())
	}

	// TraceID 中间件 - 必须在其他中间件之前
	r.Use(TraceIDMiddleware())
	r.Use(AccessLogMiddleware())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Trace-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Trace-ID"},
		AllowCredentials: false, // AllowAllOrigins 为 true 时必须设置为 false
	}))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/locators/xpath", handler.TranslateLocators)

		browserAPI := api.Group("/browser")
		{
			browserAPI.POST("/start", handler.StartBrowser)
			browserAPI.POST("/stop", handler.StopBrowser)
			browserAPI.GET("/status", handler.BrowserStatus)
			browserAPI.POST("/open", handler.OpenBrowserPage)
		}

		pages := api.Group("/pages")
		{
			pages.GET("", handler.ListPages)
			pages.POST("", handler.CreatePage)
			pages.GET("/:id", handler.GetPage)
			pages.PUT("/:id", handler.UpdatePage)
			pages.DELETE("/:id", handler.DeletePage)
			pages.POST("/:id/probe", handler.ProbePage)
			pages.POST("/:id/run", handler.RunPage)
			pages.GET("/:id/runs", handler.ListRuns)
		}

		api.GET("/runs/:id", handler.GetRun)
	}

	return r
}
