package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/st-angelo/webarena-auth/internal/api/http/handler"
	"github.com/st-angelo/webarena-auth/internal/api/http/middleware"
	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/metrics"
	"github.com/st-angelo/webarena-auth/internal/model"
)

// BodyLimit leaves room for a full-size photo plus multipart framing.
const BodyLimit = 6 << 20

// Service is everything the routes need from the flow layer.
type Service interface {
	handler.AuthService
	middleware.Authenticator
}

// Router wires handlers and middleware into a fiber app.
type Router struct {
	auth    Service
	users   handler.UserService
	health  handler.Pinger
	limiter model.Limiter
	metrics *metrics.Metrics
	cookie  handler.CookieOptions
	logger  *logger.Logger
}

// New creates a Router. limiter and metrics may be nil.
func New(
	auth Service,
	users handler.UserService,
	health handler.Pinger,
	limiter model.Limiter,
	metrics *metrics.Metrics,
	cookie handler.CookieOptions,
	logger *logger.Logger,
) *Router {
	return &Router{
		auth:    auth,
		users:   users,
		health:  health,
		limiter: limiter,
		metrics: metrics,
		cookie:  cookie,
		logger:  logger,
	}
}

// Register builds the fiber app with every route mounted.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "webarena-auth",
		BodyLimit:             BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler(r.logger),
	})

	app.Use(middleware.Logging(r.logger))
	if r.metrics != nil {
		app.Use(middleware.Metrics(r.metrics))
		app.Get("/metrics", adaptor.HTTPHandler(r.metrics.Handler()))
	}

	app.Get("/healthz", handler.NewHealth(r.health, r.logger).Check)

	r.registerUserRoutes(app.Group("/api/v1/users"))

	return app
}

func (r *Router) registerUserRoutes(g fiber.Router) {
	auth := handler.NewAuth(r.auth, r.cookie)
	users := handler.NewUsers(r.users)

	g.Post("/signup", auth.Signup)
	g.Post("/login", middleware.RateLimit(r.limiter, "login", r.logger), auth.Login)
	g.Post("/forgotPassword", middleware.RateLimit(r.limiter, "forgot_password", r.logger), auth.ForgotPassword)
	g.Patch("/resetPassword/:secret", auth.ResetPassword)

	protect := middleware.Protect(r.auth)
	g.Patch("/updatePassword", protect, auth.UpdatePassword)
	g.Get("/me", protect, users.Me)
	g.Get("/me/photo", protect, users.Photo)
	g.Patch("/me/photo", protect, users.UpdatePhoto)
	g.Get("/:id", protect, middleware.RestrictTo(model.RoleAdmin, model.RoleModerator), users.Get)
}
