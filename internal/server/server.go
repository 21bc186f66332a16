// Package server exposes the collections API over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/collecta/internal/audit/domain"
	"github.com/smallbiznis/collecta/internal/config"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	escalationdomain "github.com/smallbiznis/collecta/internal/escalation/domain"
	"github.com/smallbiznis/collecta/internal/observability/logger"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	plandomain "github.com/smallbiznis/collecta/internal/paymentplan/domain"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Engine        *gin.Engine
	HTTPMetrics   *metrics.HTTPMetrics `optional:"true"`
	CaseSvc       casedomain.Service
	EscalationSvc escalationdomain.Service
	PlanSvc       plandomain.Service
	VoiceSvc      voicedomain.Service
	AuditSvc      auditdomain.Service
}

type Server struct {
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	engine        *gin.Engine
	httpMetrics   *metrics.HTTPMetrics
	caseSvc       casedomain.Service
	escalationSvc escalationdomain.Service
	planSvc       plandomain.Service
	voiceSvc      voicedomain.Service
	auditSvc      auditdomain.Service
	jobLimiter    *rateLimiter
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("server"),
		engine:        p.Engine,
		httpMetrics:   p.HTTPMetrics,
		caseSvc:       p.CaseSvc,
		escalationSvc: p.EscalationSvc,
		planSvc:       p.PlanSvc,
		voiceSvc:      p.VoiceSvc,
		auditSvc:      p.AuditSvc,
		jobLimiter:    newRateLimiter(6, time.Minute),
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.httpMetrics != nil {
		s.engine.Use(metrics.GinMiddleware(s.httpMetrics))
	}

	api := s.engine.Group("/api")

	jobs := api.Group("/jobs")
	jobs.POST("/sweep", s.TriggerSweep)
	jobs.POST("/detect-defaults", s.TriggerDetectDefaults)
	jobs.POST("/overdue-installments", s.TriggerOverdueInstallments)

	cases := api.Group("/cases")
	cases.GET("/:id", s.GetCase)
	cases.POST("/:id/evaluate", s.EvaluateCase)
	cases.POST("/:id/status", s.TransitionCase)
	cases.POST("/:id/voice-outcome", s.ApplyVoiceOutcome)
	cases.POST("/:id/calls", s.ScheduleCall)
	cases.GET("/:id/executions", s.ListExecutions)

	plans := api.Group("/plans")
	plans.POST("", s.CreatePlan)

	api.POST("/installments/:id/payments", s.ApplyPayment)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
