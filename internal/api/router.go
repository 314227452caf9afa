package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/obaidmalik/cityflow-backend-go/internal/config"
	"github.com/obaidmalik/cityflow-backend-go/internal/handler"
	"github.com/obaidmalik/cityflow-backend-go/internal/middleware"
)

// SetupRouter wires the API surface: job submission and polling, city
// listings, insights and static artifact files.
func SetupRouter(cfg *config.Config, jobs *handler.JobHandler, cities *handler.CityHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "CityFlow API is running",
			"ts":      time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Artifacts are plain files under the jobs dir
	r.Static("/files/jobs", cfg.JobsDir)

	v1 := r.Group("/v1")
	{
		v1.GET("/cities", cities.List)
		v1.GET("/status/:job_id", jobs.Status)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		protected.Use(middleware.RateLimit(30, time.Minute))
		{
			protected.POST("/submit", jobs.Submit)
			protected.POST("/insights/:job_id", jobs.Insights)
		}
	}

	return r
}
