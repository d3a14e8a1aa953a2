package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/gatherhub/gatherhub-api/docs"
	v1 "github.com/gatherhub/gatherhub-api/internal/api/handler/v1"
	"github.com/gatherhub/gatherhub-api/internal/api/middleware"
	"github.com/gatherhub/gatherhub-api/internal/config"
	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/ics"
	"github.com/gatherhub/gatherhub-api/internal/repository"
	"github.com/gatherhub/gatherhub-api/internal/repository/dao"
	"github.com/gatherhub/gatherhub-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	liveHandler := v1.NewLiveHandler()
	go liveHandler.Run()

	eventHandler, rsvpHandler := s.initEventHandlers(db, liveHandler)
	donationHandler := s.initDonationHandler(db)
	s.MountHandlers(eventHandler, rsvpHandler, donationHandler, liveHandler)

	return s
}

func (s *Server) initEventHandlers(db *gorm.DB, liveHandler *v1.LiveHandler) (*v1.EventHandler, *v1.RSVPHandler) {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)

	fetcher := ics.NewFetcher()
	calendars := s.Config.Calendars
	feed := ics.NewCache(func(ctx context.Context) map[string][]domain.CalendarEvent {
		return fetcher.FetchAll(ctx, calendars)
	}, s.Config.Events.CacheTTL)

	svc := service.NewEventService(repo, feed, s.Config.Events)

	return v1.NewEventHandler(svc, liveHandler), v1.NewRSVPHandler(svc, liveHandler)
}

func (s *Server) initDonationHandler(db *gorm.DB) *v1.DonationHandler {
	donationDAO := dao.NewDonationDAO(db)
	repo := repository.NewDonationRepository(donationDAO)
	svc := service.NewDonationService(repo, s.Config.Stripe)

	return v1.NewDonationHandler(svc)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(eventHandler *v1.EventHandler, rsvpHandler *v1.RSVPHandler, donationHandler *v1.DonationHandler, liveHandler *v1.LiveHandler) {
	admin := middleware.NewAdminAuthenticator(s.Config.API.AdminSecretHash)

	s.Router.GET("/events", eventHandler.HandleListEvents)
	s.Router.GET("/events/:eventID", eventHandler.HandleGetEvent)
	s.Router.POST("/rsvp", rsvpHandler.HandleRSVP)
	s.Router.GET("/donations", donationHandler.HandleListDonations)
	s.Router.POST("/donations/checkout", donationHandler.HandleCreateCheckout)

	adminRoutes := s.Router.Group("", admin.RequireSecret())
	{
		adminRoutes.PUT("/events/:eventID", eventHandler.HandleUpdateEvent)
		adminRoutes.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		adminRoutes.POST("/donations", donationHandler.HandleCreateDonation)
	}

	// The root serves both the healthcheck and the live WebSocket endpoint.
	s.Router.GET("/", liveHandler.HandleRoot)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Title = "GatherHub API"
	docs.SwaggerInfo.Description = "Community event RSVP service backed by public Google Calendars."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
