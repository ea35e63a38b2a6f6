package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"parkreserve/internal/auth"
	"parkreserve/internal/booking"
	"parkreserve/internal/config"
	"parkreserve/internal/email"
	"parkreserve/internal/logger"
	"parkreserve/internal/profile"
	"parkreserve/internal/spot"
	"parkreserve/internal/toast"
	"parkreserve/internal/user"
	"parkreserve/internal/wallet"
	"parkreserve/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Deps are the shared resources the routes are built from. Email may be nil.
type Deps struct {
	DB     *sqlx.DB
	Redis  *redis.Client
	Config *config.Config
	Email  *email.Service
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(deps Deps) *Server {
	cfg := deps.Config

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router := gin.New()
	// Only listed proxies may set X-Forwarded-For; otherwise ClientIP is the peer address.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn("ignoring invalid trusted proxies", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(limiter.Middleware())
	router.Use(corsMiddleware())
	router.SetHTMLTemplate(web.Templates())

	identity := auth.NewProvider(cfg.JWTSecret, auth.NewRedisRevocations(deps.Redis))
	toasts := toast.NewQueue(deps.Redis)

	walletRepo := wallet.NewRepository(deps.DB, cfg.Currency)

	userHandler := user.NewHandler(user.NewService(user.NewRepository(deps.DB), cfg.JWTSecret), identity)
	spotHandler := spot.NewHandler(spot.NewService(spot.NewRepository(deps.DB)), toasts)
	bookingHandler := booking.NewHandler(booking.NewService(booking.NewRepository(deps.DB)))
	walletHandler := wallet.NewHandler(walletRepo, toasts)

	profileCfg := profile.HandlerConfig{
		Identity:    identity,
		Store:       profile.NewStore(deps.DB),
		Wallet:      walletRepo,
		States:      profile.NewDraftStore(deps.Redis, cfg.DraftTTL),
		Toasts:      toasts,
		LoadTimeout: cfg.ProfileLoadTimeout,
	}
	if deps.Email != nil {
		profileCfg.Mailer = deps.Email
	}
	profileHandler := profile.NewHandler(profileCfg)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", userHandler.Register)
		authRoutes.POST("/login", userHandler.Login)
		authRoutes.POST("/refresh", userHandler.RefreshToken)
		authRoutes.POST("/logout", identity.Require(), userHandler.Logout)
	}

	// Server-rendered pages resolve the user when a token is present and
	// decide themselves what an anonymous visitor sees.
	pages := router.Group("/")
	pages.Use(identity.Optional())
	{
		pages.GET("/", spotHandler.Home)
		pages.GET("/lots/:lotID/spots", spotHandler.Page)
		pages.POST("/lots/:lotID/spots/:spotID/select", spotHandler.Select)

		pages.GET("/profile", profileHandler.Show)
		pages.POST("/profile/edit", profileHandler.Edit)
		pages.POST("/profile/save", profileHandler.Save)
		pages.POST("/profile/cancel", profileHandler.Cancel)
		pages.POST("/profile/logout", profileHandler.Logout)
		pages.POST("/profile/wallet", profileHandler.Wallet)

		pages.GET("/wallet", walletHandler.Page)
	}

	public := router.Group("/api")
	{
		public.GET("/lots", spotHandler.ListLots)
		public.GET("/lots/:lotID/spots", spotHandler.ListSpots)
	}

	protected := router.Group("/")
	protected.Use(identity.Require())
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/api/profile", profileHandler.Get)
		protected.GET("/api/bookings", bookingHandler.ListMyBookings)
		protected.GET("/api/bookings/:bookingID", bookingHandler.GetBooking)
		protected.GET("/api/wallet", walletHandler.GetBalance)
		protected.POST("/api/wallet/topup", walletHandler.TopUp)
		protected.GET("/api/wallet/transactions", walletHandler.ListTransactions)
	}

	admin := router.Group("/admin")
	admin.Use(identity.Require(), auth.RequireRole("admin"))
	{
		admin.POST("/lots", spotHandler.CreateLot)
		admin.POST("/lots/:lotID/spots", spotHandler.CreateSpot)
		if deps.Email != nil {
			admin.GET("/test-email", TestEmail(deps.Email))
		}
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter's sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
