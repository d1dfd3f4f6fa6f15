package setup

import (
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/app/background"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/router"
	"github.com/gin-gonic/gin"
)

const healthRefreshInterval = 15 * time.Second

// InitializeScheduler returns nil when the scheduler is disabled in config.
func InitializeScheduler(deps *Dependencies, uc *UseCases) (*background.Scheduler, error) {
	if !deps.Config.Scheduler.Enabled {
		return nil, nil
	}
	s := background.NewScheduler(deps.Location, deps.Metrics)
	tasks := background.NewBackgroundTasks(uc.ReconcileUsecase, uc.CallbackRetryUsecase, uc.MaintenanceUsecase)
	if err := tasks.Register(s); err != nil {
		return nil, fmt.Errorf("register tasks: %w", err)
	}
	return s, nil
}

func InitializeRouter(deps *Dependencies, uc *UseCases, scheduler *background.Scheduler) *gin.Engine {
	cfg := deps.Config
	rc := router.Config{
		Production:      cfg.IsProduction(),
		APIKey:          cfg.Security.APIKey,
		GlobalRateLimit: cfg.Security.GlobalRateLimit,
		StrictRateLimit: cfg.Security.StrictRateLimit,
		Metrics:         deps.Metrics,
		Gatherer:        deps.Registry,
		Card:            uc.CardUsecase,
		Bank:            uc.BankUsecase,
		Instruments:     uc.InstrumentUsecase,
		Maintenance:     uc.MaintenanceUsecase,
		Retry:           uc.CallbackRetryUsecase,
	}
	// a nil *Scheduler must not become a non-nil TaskRunner
	if scheduler != nil {
		var runner handlers.TaskRunner = scheduler
		rc.Scheduler = runner
	}
	return router.New(rc)
}

func InitializeHTTPServer(deps *Dependencies, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", deps.Config.HTTPServer.Host, deps.Config.HTTPServer.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func InitializeHealth(uc *UseCases) *grpcapi.HealthHandler {
	return grpcapi.NewHealthHandler(uc.MaintenanceUsecase, healthRefreshInterval)
}
