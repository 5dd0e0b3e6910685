package app

import (
	"os"
	"time"

	"go-workforce/internal/authorization"
	"go-workforce/internal/employee"
	"go-workforce/internal/erp"
	"go-workforce/internal/erpsync"
	"go-workforce/internal/exchange"
	"go-workforce/internal/jobqueue"
	"go-workforce/internal/notification"
	"go-workforce/internal/pos"
	"go-workforce/internal/rbac"
	"go-workforce/internal/rbac/infra"
	"go-workforce/internal/realtime"
	"go-workforce/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func registerModules(
	router *gin.Engine,
	registry tenant.Registry,
	rdb *redis.Client,
) error {
	// --- Shared Infrastructure ---
	rt := realtime.NewRedisPublisher(rdb)
	sessions := employee.NewRedisSessionStore(rdb)
	jobRepo := jobqueue.NewRepository(registry.Master().SQL)
	scheduler := jobqueue.NewScheduler(jobRepo, jobqueue.DefaultMaxRetries)
	planning := erp.NewHTTPPlanningClient(
		os.Getenv("ERP_PLANNING_BASE_URL"),
		os.Getenv("ERP_API_KEY"),
		10*time.Second,
	)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(os.Getenv("RBAC_MODEL_PATH"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbac.NewRepository(registry), enforcer)

	// --- Services ---
	notifier := notification.NewService(rt)
	employeeService := employee.NewService(sessions, rt)
	authorizationService := authorization.NewService(registry, scheduler, notifier, rt)
	posService := pos.NewService(rt)
	exchangeService := exchange.NewService(registry, planning, notifier)
	syncService := erpsync.NewService(employeeService, authorizationService, posService, rt)

	// --- Handlers ---
	authorizationHandler := authorization.NewHandler(authorizationService, registry)
	posHandler := pos.NewHandler(posService, registry)
	exchangeHandler := exchange.NewHandler(exchangeService)
	syncHandler := erpsync.NewHandler(syncService, registry)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		authorization.RegisterRoutes(api, authorizationHandler, rbacService)
		pos.RegisterRoutes(api, posHandler, rbacService)
		exchange.RegisterRoutes(api, exchangeHandler, rbacService)
		erpsync.RegisterWebhookRoutes(api, syncHandler, rdb, os.Getenv("ERP_WEBHOOK_SECRET"))
		rbac.RegisterRoutes(api, rbacHandler)
	}

	return nil
}
