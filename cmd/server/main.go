package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-backend-go/internal/api"
	"github.com/jengzang/activity-backend-go/internal/config"
	"github.com/jengzang/activity-backend-go/internal/database"
	"github.com/jengzang/activity-backend-go/internal/handler"
	"github.com/jengzang/activity-backend-go/internal/logging"
	"github.com/jengzang/activity-backend-go/internal/repository"
	"github.com/jengzang/activity-backend-go/internal/service"
	"github.com/jengzang/activity-backend-go/internal/storage"
	"github.com/jengzang/activity-backend-go/internal/thumbnail"
	"github.com/jengzang/activity-backend-go/internal/weather"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.Database.Path}); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()
	db := database.GetDB()

	activities := repository.NewActivityRepository(db)
	sports := repository.NewSportRepository(db)
	users := repository.NewUserRepository(db)
	files := storage.New(cfg.Storage.UploadDir)

	weatherClient := weather.NewClient(weather.Config{
		APIKey:            cfg.Weather.APIKey,
		BaseURL:           cfg.Weather.BaseURL,
		Timeout:           cfg.Weather.Timeout,
		RequestsPerSecond: cfg.Weather.RequestsPerSecond,
	})
	if !weatherClient.Enabled() {
		logging.Warn().Msg("WEATHER_API_KEY is not set, activities will be stored without weather")
	}

	importCfg := service.ImportConfig{
		Limit:             cfg.Import.Limit,
		AllowedExtensions: cfg.Import.AllowedExtensions,
	}
	activitySvc := service.NewActivityService(activities, sports, users, files)
	importSvc := service.NewImportService(importCfg, activities, sports, users, files, weatherClient, thumbnail.NewRenderer())
	logging.Info().Stringer("import", importCfg).Msg("Import pipeline configured")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化路由
	router := api.SetupRouter(ctx, cfg, api.Handlers{
		Activities: handler.NewActivityHandler(activitySvc, importSvc),
		Sports:     handler.NewSportHandler(activitySvc),
	})

	// 启动服务器
	logging.Info().Str("port", cfg.Server.Port).Msg("Server starting")
	if err := router.Run(cfg.Server.Port); err != nil {
		logging.Fatal().Err(err).Msg("Failed to start server")
	}
}
