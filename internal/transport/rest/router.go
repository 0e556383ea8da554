package rest

import (
	"net/http"
	"time"

	"hr_project/internal/domain"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"
	"hr_project/internal/utils"
	"hr_project/internal/utils/blacklist"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	APIPrefix          string
	AllowedOrigins     []string
	CookieSecure       bool
	SystemAPIKey       string
	LoginRatePerMinute int
	LoginBurst         int
}

type Deps struct {
	DB        *gorm.DB
	Tokens    *utils.TokenManager
	Blacklist blacklist.Blacklist
	Cache     *middleware.RedisCache
	Metrics   *middleware.Metrics
	Tracer    trace.TracerProvider
	Log       *zap.Logger
	Now       func() time.Time
}

// NewRouter wires every route of the API behind CORS.
func NewRouter(opts Options, d Deps) http.Handler {
	registerValidators()
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Blacklist == nil {
		d.Blacklist = blacklist.Noop{}
	}
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}
	if opts.LoginRatePerMinute <= 0 {
		opts.LoginRatePerMinute = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	users := repository.NewUserRepository(d.DB)
	announcements := repository.NewAnnouncementRepository(d.DB)
	policies := repository.NewPolicyRepository(d.DB)
	testimonials := repository.NewTestimonialRepository(d.DB)

	authn := middleware.NewAuthenticator(d.Tokens, users, d.Blacklist, opts.SystemAPIKey, d.Log)
	authH := &AuthHandler{users: users, tokens: d.Tokens, blacklist: d.Blacklist, cookieSecure: opts.CookieSecure, now: d.Now, log: d.Log}
	employeeH := &EmployeeHandler{users: users, log: d.Log}
	announcementH := &AnnouncementHandler{announcements: announcements, now: d.Now, log: d.Log}
	policyH := &PolicyHandler{policies: policies, log: d.Log}
	testimonialH := &TestimonialHandler{testimonials: testimonials, log: d.Log}
	adminH := &AdminHandler{users: users, announcements: announcements, policies: policies, testimonials: testimonials, log: d.Log}

	var pinger Pinger
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			pinger = sqlDB
		}
	}
	healthH := &HealthHandler{db: pinger, log: d.Log}

	r := gin.New()
	r.Use(
		middleware.Recovery(d.Log),
		middleware.Tracing(d.Tracer),
		d.Metrics.Instrument(),
		middleware.RequestLogger(d.Log),
	)
	r.GET("/healthz", healthH.Live)
	r.GET("/readyz", healthH.Ready)
	r.GET("/metrics", d.Metrics.Handler())

	api := r.Group(opts.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/token", middleware.NewIPRateLimiter(opts.LoginRatePerMinute, opts.LoginBurst).Middleware(), authH.Login)

	protected := api.Group("")
	protected.Use(authn.Authenticate(), middleware.Idempotency(d.Cache))

	protected.POST("/auth/change-password", authH.ChangePassword)
	protected.POST("/auth/logout", authH.Logout)

	employees := protected.Group("/employees")
	employees.GET("/getall", employeeH.GetAll)
	employees.GET("/filter", employeeH.Filter)
	employees.GET("/get-me", employeeH.GetMe)
	employees.GET("/:id", employeeH.Get)
	employees.POST("/create", middleware.AdminRequired(), employeeH.Create)
	employees.PUT("/update/:id", employeeH.Update)
	employees.DELETE("/delete/:id", middleware.AdminRequired(), employeeH.Delete)

	announcementsGroup := protected.Group("/announcement")
	announcementsGroup.GET("/get-all", announcementH.GetAll)
	announcementsGroup.GET("/filter", announcementH.Filter)
	announcementsGroup.GET("/get-recipient/:announcement_id/:user_id", announcementH.GetRecipient)
	announcementsGroup.GET("/:id", announcementH.Get)
	announcementsGroup.POST("/create", middleware.RoleRequired(domain.MANAGER), announcementH.Create)
	announcementsGroup.PUT("/update/:id", announcementH.Update)
	announcementsGroup.PUT("/update-approval", middleware.AdminRequired(), announcementH.UpdateApproval)
	announcementsGroup.PUT("/mark-as-read", announcementH.MarkAsRead)
	announcementsGroup.DELETE("/delete/:id", announcementH.Delete)

	policyGroup := protected.Group("/policy")
	policyGroup.GET("/getall", policyH.GetAll)
	policyGroup.GET("/filter", policyH.Filter)
	policyGroup.GET("/:id", policyH.Get)
	policyGroup.POST("/create_new_policy", middleware.AdminRequired(), policyH.Create)
	policyGroup.PUT("/edit_policy/:id", middleware.AdminRequired(), policyH.Update)
	policyGroup.DELETE("/delete_policy/:id", middleware.AdminRequired(), policyH.Delete)

	testimonialGroup := protected.Group("/testimonials")
	testimonialGroup.GET("/get-all", testimonialH.GetAll)
	testimonialGroup.GET("/filter", testimonialH.Filter)
	testimonialGroup.GET("/:id", testimonialH.Get)
	testimonialGroup.POST("/create", testimonialH.Create)
	testimonialGroup.PUT("/update/:id", testimonialH.Update)
	testimonialGroup.PUT("/review/:id", middleware.AdminRequired(), testimonialH.Review)
	testimonialGroup.DELETE("/delete/:id", testimonialH.Delete)

	adminGroup := protected.Group("/admin", middleware.AdminRequired())
	adminGroup.GET("/counts", adminH.Counts)

	r.NoRoute(func(c *gin.Context) {
		respondDetail(c, http.StatusNotFound, "Not Found")
	})

	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.APIKeyHeader, middleware.IdempotencyHeader},
		AllowCredentials: true,
	}).Handler(r)
}
