package http

import (
	"context"
	"errors"
	gohttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/config"
	"github.com/hxuan190/clmm-router/internal/http/httputil"
	"github.com/hxuan190/clmm-router/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	aggregatorSvc *aggregator.Service
	rateLimiter   *middlewares.RateLimiter
	server        *gohttp.Server
	conf          *config.GeneralConfig
	logger        *common.ServiceLogger

	handlers []httputil.IHttpHandler
}

func NewHTTPService(conf *config.GeneralConfig, aggregatorSvc *aggregator.Service) (*HTTPService, error) {
	if conf == nil || aggregatorSvc == nil {
		return nil, errors.New("invalid server config")
	}
	svc := &HTTPService{
		aggregatorSvc: aggregatorSvc,
		rateLimiter:   middlewares.NewRateLimiter(conf.HTTPRatePerSecond, conf.HTTPRateBurst),
		conf:          conf,
	}
	svc.logger = common.NewServiceLogger(svc)
	svc.handlers = []httputil.IHttpHandler{
		NewPoolHandler(aggregatorSvc),
		NewQuoteHandler(aggregatorSvc),
		NewSwapHandler(aggregatorSvc),
		NewSlippageHandler(aggregatorSvc),
	}
	svc.server = &gohttp.Server{
		Addr:              conf.Addr(),
		Handler:           svc.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return svc, nil
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

// Engine builds the gin router with every middleware and handler mounted.
func (svc *HTTPService) Engine() *gin.Engine {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	api.Use(svc.rateLimiter.RateLimitMiddleware())
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	admin := api.Group(API_VERSION + "/admin")

	svc.setupHandlers(pub, priv, admin)
	return r
}

// Start serves until Stop is called.
func (svc *HTTPService) Start() error {
	svc.logger.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")
	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		svc.logger.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	svc.logger.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
