package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
	"github.com/3Eeeecho/go-datahub/internal/pkg/search"
	"github.com/3Eeeecho/go-datahub/internal/router"
	"github.com/3Eeeecho/go-datahub/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
}

// NewServer 负责构建所有依赖
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := setup.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := setup.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	store, err := setup.InitStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 搜索与消息队列都是可选组件, 接口变量保持 nil 而不是带类型的 nil 指针
	var index search.DatasetIndex
	esIndex, err := setup.InitSearchIndex(ctx, &cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}
	if esIndex != nil {
		index = esIndex
	}

	var publisher mq.Publisher
	rabbitMQClient, err := setup.InitRabbitMQ(&cfg.RabbitMQ, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	if rabbitMQClient != nil {
		// 默认交换机投递到不存在的队列会被丢弃, 先声明
		if _, err := rabbitMQClient.DeclareQueue(cfg.RabbitMQ.PurgeQueue); err != nil {
			return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.RabbitMQ.PurgeQueue, err)
		}
		publisher = rabbitMQClient
	}

	engine := router.InitRouter(router.NewRouterConfig(db, redisClient, store, index, publisher, cfg))

	var handler http.Handler = engine
	if cfg.Server.Gzip {
		handler = gzhttp.GzipHandler(engine)
	}

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		router:         engine,
		httpServer:     httpServer,
		db:             db,
		redisClient:    redisClient,
		rabbitMQClient: rabbitMQClient,
	}, nil
}

// Run 启动服务器，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	defer setup.CloseDatabase(s.db)
	defer setup.CloseRedis(s.redisClient)
	defer func() {
		if s.rabbitMQClient != nil {
			s.rabbitMQClient.Close()
		}
	}()

	go func() {
		logger.Info("Server is running", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	select {
	case <-stopChan:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	// 给正在处理的请求 5 秒时间
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("Server exited gracefully")
}
