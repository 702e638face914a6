package server

import (
	"context"
	"net"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/maib-ecomm/maib-gateway/internal/clock"
	"github.com/maib-ecomm/maib-gateway/internal/config"
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	cfg      config.Config
	engine   *gin.Engine
	payments domain.Service
	orders   orderdomain.Repository
	db       *gorm.DB
	node     *snowflake.Node
	clock    clock.Clock
	registry *prometheus.Registry
	log      *zap.Logger
}

type Params struct {
	fx.In

	Cfg      config.Config
	Payments domain.Service
	Orders   orderdomain.Repository
	DB       *gorm.DB
	Node     *snowflake.Node
	Clock    clock.Clock
	Registry *prometheus.Registry
	Log      *zap.Logger
}

func New(p Params) *Server {
	s := &Server{
		cfg:      p.Cfg,
		payments: p.Payments,
		orders:   p.Orders,
		db:       p.DB,
		node:     p.Node,
		clock:    p.Clock,
		registry: p.Registry,
		log:      p.Log.Named("server"),
	}
	s.engine = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Processor-facing endpoints. The callback answers with a literal body;
	// the return endpoints receive the shopper's browser.
	engine.POST("/maib/callback", s.PaymentCallback)
	engine.GET("/maib/callback", s.CallbackBrowserAccess)
	engine.GET("/maib/return/ok", s.ReturnOK)
	engine.GET("/maib/return/fail", s.ReturnFail)

	api := engine.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/checkout/:id", s.Checkout)
	api.POST("/orders/:id/refund", s.RefundOrder)
	api.POST("/orders/:id/complete", s.CompleteOrder)

	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	return engine
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(Run),
)

func Run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: s.engine}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
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
