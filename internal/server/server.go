package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"toolkithub/internal/cache"
	"toolkithub/internal/config"
	"toolkithub/internal/database"
	"toolkithub/internal/middlewares"
	"toolkithub/internal/repositories"
	"toolkithub/internal/services"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	redis      *redis.Client

	toolService     services.ToolService
	categoryService services.CategoryService
	ratingService   services.RatingService
	commentService  services.CommentService
	bookmarkService services.BookmarkService
	userService     services.UserService
	authService     services.AuthService
	adminService    services.AdminService
	transferService services.TransferService

	auth        *middlewares.Authenticator
	ipLimiter   *middlewares.RateLimiter
	userLimiter *middlewares.RateLimiter
	cancel      context.CancelFunc
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Error().Err(err).Msg("Failed to ensure indexes")
	}

	var catalogCache cache.CatalogCache = cache.NoopCatalogCache{}
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, catalog cache disabled")
		} else {
			catalogCache = cache.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL)
		}
	}

	toolRepo := repositories.NewToolRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	bookmarkRepo := repositories.NewBookmarkRepository(db)
	userRepo := repositories.NewUserRepository(db)
	adminLogRepo := repositories.NewAdminLogRepository(db)

	adminService := services.NewAdminService(cfg, adminLogRepo)
	if !adminService.Enabled() {
		log.Warn().Msg("ADMIN_ID or ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	s := &Server{
		cfg:             cfg,
		db:              db,
		redis:           redisClient,
		toolService:     services.NewToolService(toolRepo, categoryRepo, ratingRepo, commentRepo, bookmarkRepo, catalogCache),
		categoryService: services.NewCategoryService(categoryRepo, toolRepo, catalogCache),
		ratingService:   services.NewRatingService(ratingRepo, toolRepo, catalogCache),
		commentService:  services.NewCommentService(commentRepo, toolRepo, userRepo, catalogCache),
		bookmarkService: services.NewBookmarkService(bookmarkRepo, toolRepo),
		userService:     services.NewUserService(userRepo),
		authService:     services.NewAuthService(userRepo, cfg.JWTSecret),
		adminService:    adminService,
		transferService: services.NewTransferService(toolRepo, categoryRepo, catalogCache, db),
		auth:            middlewares.NewAuthenticator(cfg.JWTSecret, adminService),
		ipLimiter:       middlewares.NewRateLimiter(10, 20),
		userLimiter:     middlewares.NewRateLimiter(3, 5),
	}

	providers := services.InitializeGoth(cfg)
	log.Info().Strs("providers", providers).Msg("Social sign-in providers registered")

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.ipLimiter.CleanupVisitors(ctx)
	go s.userLimiter.CleanupVisitors(ctx)

	log.Info().Int("port", s.cfg.Port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing redis client")
		}
	}
	if err := s.db.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Error disconnecting from MongoDB")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
