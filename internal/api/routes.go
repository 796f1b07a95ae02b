package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/services"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/pkg/config"
)

// RouterDeps are the collaborators the routes need
type RouterDeps struct {
	Services *services.Services
	JWT      *auth.JWTService
	Sessions session.Store
	Config   *config.Config
	Logger   logger.Logger
	Checks   map[string]CheckFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps RouterDeps) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	svc := deps.Services

	authHandler := NewAuthHandler(svc.Auth, deps.Config.IsProduction())
	surveyHandler := NewSurveyHandler(svc.Survey)
	dashboardHandler := NewDashboardHandler(svc.Dashboard)
	chatHandler := NewChatHandler(svc.Chat, deps.Logger.With("component", "chat_handler"))
	offersHandler := NewOffersHandler(svc.Offers)
	healthHandler := NewHealthHandler(svc.Health, deps.Checks)

	r.GET("/healthz", healthHandler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/signup", authHandler.SignUp)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/refresh", authHandler.RefreshToken)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(deps.JWT, deps.Sessions))
	protected.Use(auth.CSRFMiddleware())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)

		// Survey
		protected.GET("/survey", surveyHandler.GetStatus)
		protected.POST("/survey/steps/:step", surveyHandler.SubmitStep)
		protected.POST("/survey/previous", surveyHandler.Previous)
		protected.POST("/survey/submit", surveyHandler.Submit)

		protected.GET("/dashboard", dashboardHandler.GetOverview)

		// Chat
		protected.GET("/chat", chatHandler.GetHistory)
		protected.POST("/chat", chatHandler.SendMessage)
		protected.POST("/chat/stream", chatHandler.StreamMessage)

		// Offers
		protected.POST("/offers/fetch", offersHandler.FetchOffers)
		protected.GET("/offers", offersHandler.GetOffers)
		protected.POST("/offers/sort", offersHandler.SortOffers)
		protected.POST("/offers/filter", offersHandler.FilterOffers)
	}
}
