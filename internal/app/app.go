package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/controller"
	"launchpad_backend/internal/model"
	"launchpad_backend/internal/repository"
	"launchpad_backend/internal/service"
	"launchpad_backend/pkg/database"
	"launchpad_backend/pkg/logger"
	"launchpad_backend/pkg/monitoring"
	"launchpad_backend/pkg/security"
	"launchpad_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	feed     *repository.ProgressFeed
}

type repositories struct {
	user     *repository.UserRepository
	progress *repository.ProgressRepository
	project  *repository.ProjectRepository
	resource *repository.ResourceRepository
}

type services struct {
	auth           *service.AuthService
	calculator     *service.ProgressCalculator
	tracker        *service.ProgressTracker
	engine         *service.RecommendationEngine
	recommendation *service.RecommendationService
	project        *service.ProjectService
}

type controllers struct {
	auth           *controller.AuthController
	project        *controller.ProjectController
	progress       *controller.ProgressController
	recommendation *controller.RecommendationController
	health         *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	a.feed = repository.NewProgressFeed(rdb)
	return &repositories{
		user:     repository.NewUserRepository(db),
		progress: repository.NewProgressRepository(db, a.feed),
		project:  repository.NewProjectRepository(db),
		resource: repository.NewResourceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.calculator = service.NewProgressCalculator(cfg.Engine)
	s.tracker = service.NewProgressTracker(repos.progress, s.calculator, cfg.Tracker, cfg.Engine)

	catalog, err := repos.resource.ListAll(context.Background())
	if err != nil || len(catalog) == 0 {
		if err != nil {
			logger.Log.Warn("resource catalog unavailable, using built-in defaults", zap.Error(err))
		}
		catalog = model.DefaultResourceCatalog()
	}
	s.engine = service.NewRecommendationEngine(cfg.Engine, s.calculator, service.NewMemoryBehaviorStore(), catalog)

	s.recommendation = service.NewRecommendationService(s.tracker, repos.project, s.engine, s.calculator, cfg.Engine)
	s.project = service.NewProjectService(repos.project, s.tracker)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		project:        controller.NewProjectController(s.project),
		progress:       controller.NewProgressController(s.tracker),
		recommendation: controller.NewRecommendationController(s.recommendation),
		health:         controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("launchpad", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

// ApplyConfig overwrites the live config in place. Components that keep the
// *config.Config pointer (JWT validation, auth service) pick up the new
// values on their next read; construction-time copies need a restart.
func (a *App) ApplyConfig(newCfg *config.Config) {
	newCfg.ForceMigrate = a.Config.ForceMigrate
	newCfg.MigrateOnly = a.Config.MigrateOnly
	*a.Config = *newCfg
	logger.Log.Info("configuration reloaded")
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先排空待持久化的进度写入，再停 HTTP
	if a.services != nil && a.services.tracker != nil {
		a.services.tracker.Close()
	}
	if a.feed != nil {
		a.feed.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
