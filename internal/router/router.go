package router

import (
	"net/http"
	"time"

	_ "github.com/3Eeeecho/go-datahub/docs"
	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/handlers"
	"github.com/3Eeeecho/go-datahub/internal/middlewares"
	"github.com/3Eeeecho/go-datahub/internal/pkg/cache"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
	"github.com/3Eeeecho/go-datahub/internal/pkg/search"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"github.com/3Eeeecho/go-datahub/internal/services/admin"
	"github.com/3Eeeecho/go-datahub/internal/services/dataset"
	"github.com/3Eeeecho/go-datahub/internal/services/explorer"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖, redisClient / index / publisher 可以为 nil
type RouterConfig struct {
	db          *gorm.DB
	redisClient *redis.Client
	store       storage.ObjectStore
	index       search.DatasetIndex
	publisher   mq.Publisher
	cfg         *config.Config
}

func NewRouterConfig(db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore, index search.DatasetIndex, publisher mq.Publisher, cfg *config.Config) *RouterConfig {
	return &RouterConfig{
		db:          db,
		redisClient: redisClient,
		store:       store,
		index:       index,
		publisher:   publisher,
		cfg:         cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	cfg := routerCfg.cfg
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()
	router.Use(middlewares.RequestID(), middlewares.AccessLog(), gin.Recovery())

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 仓储与服务
	var datasetRepo repositories.DatasetRepository = repositories.NewDatasetRepository(routerCfg.db)
	if routerCfg.redisClient != nil {
		datasetRepo = repositories.NewCachedDatasetRepository(datasetRepo, cache.NewRedisCache(routerCfg.redisClient), cfg.Redis.TTL)
	}
	fileRepo := repositories.NewFileRepository(routerCfg.db)
	tm := repositories.NewTransactionManager(routerCfg.db)

	authService := admin.NewAuthService(cfg.Admin, cfg.JWT)
	datasetService := dataset.NewService(dataset.Deps{
		Datasets:   datasetRepo,
		Files:      fileRepo,
		TM:         tm,
		Store:      routerCfg.store,
		Index:      routerCfg.index,
		Publisher:  routerCfg.publisher,
		PurgeQueue: cfg.RabbitMQ.PurgeQueue,
		Now:        time.Now,
	})
	uploadService := dataset.NewUploadService(datasetRepo, fileRepo, routerCfg.store)
	treeService := explorer.NewFileTreeService(fileRepo)
	previewService := explorer.NewPreviewService(routerCfg.store, fileRepo, cfg.Preview)

	authHandler := handlers.NewAuthHandler(authService, cfg)
	datasetHandler := handlers.NewDatasetHandler(datasetService, cfg)
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg)
	fileHandler := handlers.NewFileHandler(treeService, previewService, cfg)

	api := router.Group("/api")
	{
		// 认证相关路由 (无需认证)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/check", authHandler.Check)
		}

		// 公开读取
		datasetGroup := api.Group("/datasets")
		{
			datasetGroup.GET("", datasetHandler.ListDatasets)
			datasetGroup.GET("/:id", datasetHandler.GetDataset)
			datasetGroup.GET("/:id/files", fileHandler.ListFiles)
			datasetGroup.GET("/:id/files/preview", fileHandler.GetFilePreview)
		}

		// 需要管理员身份的写操作
		adminGroup := api.Group("/datasets")
		adminGroup.Use(middlewares.AuthMiddleware(authService))
		{
			adminGroup.POST("", datasetHandler.CreateDataset)
			adminGroup.PUT("/:id", datasetHandler.UpdateDataset)
			adminGroup.DELETE("/:id", datasetHandler.DeleteDataset)
			adminGroup.PUT("/:id/objects", uploadHandler.UploadObject)
			adminGroup.POST("/:id/upload-complete", uploadHandler.CompleteUpload)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
