package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/food-order-api/internal/config"
	"github.com/flicky/food-order-api/internal/handler"
	"github.com/flicky/food-order-api/internal/middleware"
	"github.com/flicky/food-order-api/internal/realtime"
	"github.com/flicky/food-order-api/internal/repository"
	"github.com/flicky/food-order-api/internal/service"
	"github.com/flicky/food-order-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ publish channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	txManager := repository.NewTxManager(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	menuRepo := repository.NewMenuItemRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)

	// Services
	publisher := worker.NewPublisher(publishCh)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(userRepo)
	menuSvc := service.NewMenuService(menuRepo, redisClient, cfg.Cache.MenuItemTTL)
	cartSvc := service.NewCartService(txManager, cartRepo, menuSvc)
	orderSvc := service.NewOrderService(txManager, orderRepo, cartRepo, userRepo, menuSvc, publisher, log)
	paymentSvc := service.NewPaymentService(txManager, paymentRepo, orderRepo, publisher, log)
	reviewSvc := service.NewReviewService(reviewRepo, userRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc, userSvc)
	menuH := handler.NewMenuHandler(menuSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Live order feed
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, log)
	orderWorker := worker.NewOrderWorker(consumeCh, redisClient, hub, log)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authMW := middleware.AuthMiddleware(cfg.JWT.Secret)
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		menu := v1.Group("/menu-items")
		menu.GET("", menuH.List)
		menu.GET("/:id", menuH.GetByID)

		menuAdmin := menu.Group("", authMW, middleware.AdminOnly())
		menuAdmin.POST("", menuH.Create)
		menuAdmin.PUT("/:id", menuH.Update)
		menuAdmin.DELETE("/:id", menuH.Delete)

		users := v1.Group("/users", authMW)
		users.GET("/me", authH.Me)
		users.PUT("/me/address", authH.UpdateAddress)

		cart := v1.Group("/cart", authMW)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItems)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.RemoveItem)

		orders := v1.Group("/orders", authMW)
		orders.POST("", orderH.CreateOrder)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/cancel", orderH.CancelOrder)
		orders.GET("/:id/payments", paymentH.ListOrderPayments)

		payments := v1.Group("/payments", authMW)
		payments.POST("", paymentH.CreatePayment)
		payments.GET("/:id", paymentH.GetPayment)
		payments.POST("/:id/verify", paymentH.VerifyPayment)

		v1.GET("/restaurants/:id/reviews", reviewH.ListByRestaurant)
		reviews := v1.Group("/reviews", authMW)
		reviews.POST("", reviewH.Upsert)
		reviews.GET("/:id", reviewH.GetByID)

		admin := v1.Group("/admin", authMW, middleware.AdminOnly())
		admin.GET("/orders", orderH.AdminListOrders)
		admin.GET("/orders/feed", gin.WrapH(hub))
		admin.GET("/orders/:id", orderH.AdminGetOrder)
		admin.PUT("/orders/:id/status", orderH.UpdateStatus)
	}

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	hub.Close()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
