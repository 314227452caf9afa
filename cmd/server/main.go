package main

import (
	"log"

	"github.com/obaidmalik/cityflow-backend-go/internal/api"
	"github.com/obaidmalik/cityflow-backend-go/internal/artifact"
	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/config"
	"github.com/obaidmalik/cityflow-backend-go/internal/database"
	"github.com/obaidmalik/cityflow-backend-go/internal/handler"
	"github.com/obaidmalik/cityflow-backend-go/internal/repository"
	"github.com/obaidmalik/cityflow-backend-go/internal/service"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	store := citygraph.NewStore(cfg.DataDir)
	writer := artifact.NewWriter(cfg.JobsDir, "/files/jobs")
	jobRepo := repository.NewJobRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	jobService := service.NewJobService(jobRepo, artifactRepo, store, writer, service.GoExecutor{})

	router := api.SetupRouter(cfg,
		handler.NewJobHandler(jobService),
		handler.NewCityHandler(store),
	)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
