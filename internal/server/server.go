package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/comparepco/rentalcore/internal/booking"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/bookingquery"
	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/lockguard"
	"github.com/comparepco/rentalcore/internal/notification"
	notificationdomain "github.com/comparepco/rentalcore/internal/notification/domain"
	"github.com/comparepco/rentalcore/internal/observability"
	obsmiddleware "github.com/comparepco/rentalcore/internal/observability/logger"
	obsmetrics "github.com/comparepco/rentalcore/internal/observability/metrics"
	obstracing "github.com/comparepco/rentalcore/internal/observability/tracing"
	"github.com/comparepco/rentalcore/internal/payment"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	lockguard.Module,
	notification.Module,
	booking.Module,
	payment.Module,
	bookingquery.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config

	bookingSvc      bookingdomain.Service
	paymentSvc      paymentdomain.Service
	querySvc        *bookingquery.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config

	BookingSvc      bookingdomain.Service
	PaymentSvc      paymentdomain.Service
	QuerySvc        *bookingquery.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,

		bookingSvc:      p.BookingSvc,
		paymentSvc:      p.PaymentSvc,
		querySvc:        p.QuerySvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	bookings := api.Group("/bookings")
	{
		bookings.POST("", s.CreateBooking)
		bookings.GET("", s.ListBookings)
		bookings.GET("/enriched", s.QueryBookings)
		bookings.GET("/:bookingId", s.GetBooking)
		bookings.GET("/:bookingId/enriched", s.GetEnrichedBooking)
		bookings.POST("/:bookingId/transition", s.TransitionBooking)

		bookings.POST("/:bookingId/return", s.RequestReturn)
		bookings.POST("/:bookingId/return/resolve", s.ResolveReturn)

		bookings.POST("/:bookingId/issues", s.ReportIssue)
		bookings.GET("/:bookingId/issues", s.ListIssues)

		bookings.POST("/:bookingId/payments/events", s.RecordPaymentEvent)
		bookings.GET("/:bookingId/payments/events", s.ListPaymentEvents)
		bookings.GET("/:bookingId/payments/summary", s.ReconcileBooking)
		bookings.POST("/:bookingId/payments/schedule", s.ActivateSchedule)
		bookings.DELETE("/:bookingId/payments/schedule", s.DeactivateSchedule)

		bookings.GET("/:bookingId/notifications", s.ListNotificationIntents)
	}

	issues := api.Group("/issues")
	{
		issues.POST("/:issueId/resolve", s.ResolveIssue)
	}
}
