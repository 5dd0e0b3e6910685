package app

import (
	"log"
	"os"

	"go-workforce/internal/middleware"
	"go-workforce/internal/shared/connection"
	"go-workforce/internal/tenant"

	"github.com/gin-gonic/gin"
)

// BuildApp connects the master store and redis, loads the tenant registry
// and mounts every module on the router.
func BuildApp(router *gin.Engine) error {
	masterDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	log.Println("✅ Master database connection established")

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	log.Println("✅ Redis connection established")

	registry, err := tenant.NewRegistry(masterDB)
	if err != nil {
		return err
	}

	router.Use(middleware.RequestID())

	return registerModules(router, registry, rdb)
}
