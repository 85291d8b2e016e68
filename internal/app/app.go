package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/controller"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/configwatcher"
	"exam_portal_backend/pkg/kvstore"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"
	"exam_portal_backend/pkg/security"
	"exam_portal_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	Store           kvstore.Store
	services        *services
	limiter         *security.Limiter
	tracer          *sdktrace.TracerProvider
	stop            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	storage     *service.StorageService
	entitlement *service.EntitlementService
	content     *service.ContentService
	exam        *service.ExamService
	practice    *service.PracticeService
	progress    *service.ProgressService
	admin       *service.AdminService
}

type controllers struct {
	auth     *controller.AuthController
	content  *controller.ContentController
	exam     *controller.ExamController
	practice *controller.PracticeController
	progress *controller.ProgressController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) initRepositories(store kvstore.Store) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(store),
		question: repository.NewQuestionRepository(store),
		attempt:  repository.NewAttemptRepository(store),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.entitlement = service.NewEntitlementService(repos.user, s.storage, cfg)
	s.content = service.NewContentService(repos.question, cfg)
	s.exam = service.NewExamService(s.content, s.entitlement, repos.attempt, cfg)
	s.practice = service.NewPracticeService(s.content)
	s.progress = service.NewProgressService(repos.attempt, s.content)
	s.admin = service.NewAdminService(s.entitlement, repos.question, repos.attempt, cfg)

	return s
}

func (a *App) initControllers(s *services, store kvstore.Store) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.entitlement),
		content:  controller.NewContentController(s.content),
		exam:     controller.NewExamController(s.exam),
		practice: controller.NewPracticeController(s.practice),
		progress: controller.NewProgressController(s.progress),
		admin:    controller.NewAdminController(s.entitlement, s.admin),
		health:   controller.NewHealthController(store),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())

	a.limiter = security.NewLimiter(cfg.RateLimit)
	go a.limiter.Run(a.stop)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// RegisterConfigCallback 注册配置热更新回调
func (a *App) RegisterConfigCallback(fn func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, fn)
}

func (a *App) applyConfig(newCfg *config.Config) {
	for _, fn := range a.configCallbacks {
		fn(newCfg)
	}
}

// New assembles the application on an already opened store.
func New(cfg *config.Config, store kvstore.Store) *App {
	app := &App{
		Config: cfg,
		Store:  store,
		stop:   make(chan struct{}),
	}

	repos := app.initRepositories(store)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, store)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 试用期、价格等业务参数支持热更新
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		cfg.Auth = newCfg.Auth
		logger.Log.Info("Auth settings reloaded",
			zap.Int("trialDays", cfg.Auth.TrialDays),
			zap.String("planPrice", cfg.Auth.PlanPrice))
	})

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")
	gin.SetMode(cfg.Server.Mode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	app := New(cfg, store)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.Content.SeedFile != "" && !cfg.SeedOnly {
		if err := app.Seed(ctx); err != nil {
			logger.Log.Error("Failed to seed question bank", zap.Error(err))
		}
	}

	return app
}

// Seed loads the configured seed file into an empty question bank.
func (a *App) Seed(ctx context.Context) error {
	n, err := a.services.content.SeedFromFile(ctx, a.Config.Content.SeedFile)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Log.Info("Question bank not empty, seed skipped")
	}
	return nil
}

// WatchConfig 监听配置文件变化，直到 Close 被调用
func (a *App) WatchConfig(configDir string) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-a.stop
		cancel()
	}()
	go func() {
		file := filepath.Join(configDir, "config.yaml")
		if err := configwatcher.Watch(ctx, file, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

// Close stops background work, abandons live sessions and releases the store.
func (a *App) Close() {
	select {
	case <-a.stop:
		return
	default:
		close(a.stop)
	}

	if a.services != nil {
		a.services.exam.Shutdown()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if err := a.Store.Close(); err != nil {
		logger.Log.Error("Failed to close store", zap.Error(err))
	}
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	// 进行中的考试会话随进程结束而作废
	a.Close()

	log.Println("Server exiting")
}
