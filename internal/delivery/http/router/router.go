package router

import (
	"net/http"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/validation"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/bank"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/card"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Production      bool
	APIKey          string
	GlobalRateLimit int
	StrictRateLimit int

	Metrics  *metrics.GatewayMetrics
	Gatherer prometheus.Gatherer

	Card        card.CardUsecase
	Bank        bank.BankUsecase
	Instruments usecase.InstrumentUsecase
	Maintenance usecase.MaintenanceUsecase
	Retry       usecase.CallbackRetryUsecase
	Scheduler   handlers.TaskRunner
}

func New(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Observe(cfg.Metrics))

	v := validation.New()
	resp := &handlers.Responder{Production: cfg.Production}
	cardHandler := handlers.NewCardHandler(cfg.Card, v, resp)
	bankHandler := handlers.NewBankHandler(cfg.Bank, v, resp)
	instrumentHandler := handlers.NewInstrumentHandler(cfg.Instruments, resp)
	systemHandler := handlers.NewSystemHandler(cfg.Maintenance, cfg.Retry, cfg.Scheduler, resp)

	auth := middleware.APIKey(cfg.APIKey)
	strict := middleware.StrictLimiter(cfg.StrictRateLimit).Middleware()

	r.GET("/health/live", systemHandler.Live)
	r.GET("/health/ready", systemHandler.Ready)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// provider webhooks skip the per-IP limits
	hooks := r.Group("/api")
	hooks.POST("/card/callback", cardHandler.Callback)
	hooks.POST("/bank/callback", bankHandler.Webhook)

	api := r.Group("/api", middleware.GlobalLimiter(cfg.GlobalRateLimit).Middleware())

	cardGroup := api.Group("/card")
	cardGroup.POST("", strict, auth, cardHandler.Submit)
	cardGroup.POST("/status", strict, auth, cardHandler.Status)
	cardGroup.GET("/discount", cardHandler.Discount)
	cardGroup.GET("/discount/:account", cardHandler.Discount)

	bankGroup := api.Group("/bank")
	bankGroup.POST("", strict, bankHandler.CreatePaymentLink)
	bankGroup.POST("/checkout", strict, bankHandler.CreatePaymentLink)
	bankGroup.GET("/payment-info/:orderCode", bankHandler.GetPaymentInfo)
	bankGroup.GET("/orders/:orderCode", bankHandler.GetOrder)

	api.GET("/instruments", instrumentHandler.Search)
	api.GET("/instruments/:ref", instrumentHandler.Lookup)

	tx := api.Group("/transactions")
	tx.GET("/history", instrumentHandler.History)
	tx.GET("/search", instrumentHandler.Search)
	tx.GET("/:id/logs", instrumentHandler.Logs)

	system := api.Group("/system")
	system.GET("/health", systemHandler.Health)
	system.GET("/queue", systemHandler.Queue)
	system.GET("/queue/dead-letters", auth, systemHandler.DeadLetters)
	system.GET("/scheduler", systemHandler.Scheduler)
	system.POST("/scheduler/:task/run", auth, systemHandler.RunTask)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.Envelope{
			Code:    "NOT_FOUND",
			Message: "route " + c.Request.Method + " " + c.Request.URL.Path + " not found",
		})
	})
	return r
}
