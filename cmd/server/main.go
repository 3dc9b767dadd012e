package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/api"
	"github.com/scrandev/aerialnest/internal/config"
	"github.com/scrandev/aerialnest/internal/repository"
	"github.com/scrandev/aerialnest/internal/service"
	"github.com/scrandev/aerialnest/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer logger.Sync()

	// Set up database connection
	db, err := config.SetupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db, logger)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret, cfg.Emergency.DefaultTTL, logger)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
