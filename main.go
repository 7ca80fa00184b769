package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"gba-rental/internal/admin"
	admin_api "gba-rental/internal/admin/api"
	"gba-rental/internal/auth"
	"gba-rental/internal/config"
	"gba-rental/internal/database/migrations"
	"gba-rental/internal/kafka"
	"gba-rental/internal/logger"
	"gba-rental/internal/metrics"
	"gba-rental/internal/notification"
	"gba-rental/internal/order"
	orderdb "gba-rental/internal/order/db"
	"gba-rental/internal/order/order_api"
	"gba-rental/internal/payment"
	"gba-rental/internal/user"
	userdb "gba-rental/internal/user/db"
	"gba-rental/internal/user/user_api"
	"gba-rental/internal/vehicle"
	vehicledb "gba-rental/internal/vehicle/db"
	"gba-rental/internal/vehicle/vehicle_api"
	"gba-rental/internal/voucher"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		PoolSize: 10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("DATABASE", fmt.Sprintf("Redis unavailable at %s, catalog cache disabled: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting rental backend initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	if cfg.Server.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer kafkaProducer.Close()
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.NotificationsTopic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	gateway, err := payment.NewGateway(cfg.Stripe, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Payment gateway initialization failed: %v", err))
	}

	dispatcher := notification.NewDispatcher(kafkaProducer, cfg.Kafka.NotificationsTopic, cfg.Email.AdminEmail, log)

	vehicleService := vehicle.NewVehicleService(
		&vehicledb.DB{Bun: bunDB},
		vehicle.NewCache(redisClient, cfg.Redis.CacheTTL, log),
		log,
	)
	importer := vehicle.NewImporter(vehicleService, cfg.Vehicle, log)

	orderStore := &orderdb.DB{Bun: bunDB}
	orderService := order.NewOrderService(orderStore, gateway, vehicleService, dispatcher, log, cfg.Stripe.DefaultCurrency)
	reconciler := order.NewReconciler(orderStore, cfg.Stripe, log)

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth)
	userService := user.NewUserService(&userdb.DB{Bun: bunDB}, tokenIssuer, dispatcher, log)

	adminService := admin.NewService(bunDB, log)

	orderHandler := order_api.NewHandler(orderService, reconciler, voucher.NewGenerator(cfg.Auth.VoucherSecret), log)
	vehicleHandler := vehicle_api.NewHandler(vehicleService, importer, log)
	userHandler := user_api.NewHandler(userService, log)
	adminHandler := admin_api.NewHandler(adminService, orderService, userService, dispatcher, log)

	// Notification worker drains the queue in the background.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, cfg.Kafka.GroupID)
		defer consumer.Close()

		sender := notification.NewDualProviderSender(cfg.Email, log)
		worker := notification.NewWorker(consumer, sender, log)
		go worker.Run(workerCtx)
	} else {
		log.Warn("NOTIFY", "Kafka disabled, notifications will not be delivered")
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// --- Public Routes ---
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		r.Get("/vehicles", vehicleHandler.SearchVehicles)
		r.Get("/vehicles/{vehicleId}", vehicleHandler.GetVehicle)

		// Raw signed payload; must stay outside auth.
		r.Post("/payments/webhook", orderHandler.StripeWebhook)

		// --- Authenticated Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenIssuer))

			r.Get("/users/me", userHandler.Me)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateOrder)
				r.Get("/", orderHandler.ListMyOrders)
				r.Get("/{orderId}", orderHandler.GetOrder)
				r.Get("/{orderId}/status", orderHandler.CheckOrderStatus)
				r.Get("/{orderId}/voucher", orderHandler.GetPickupVoucher)
			})

			// --- Admin Routes ---
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.AdminOnly())

				r.Get("/stats", adminHandler.Stats)

				r.Get("/users", adminHandler.ListUsers)
				r.Put("/users/{userId}", adminHandler.UpdateUser)
				r.Delete("/users/{userId}", adminHandler.DeleteUser)

				r.Get("/orders", adminHandler.ListOrders)
				r.Put("/orders/{orderId}/status", adminHandler.UpdateOrderStatus)
				r.Post("/orders/{orderId}/approve", adminHandler.ApproveOrder)
				r.Post("/orders/{orderId}/reject", adminHandler.RejectOrder)
				r.Post("/orders/{orderId}/payment-reminder", adminHandler.SendPaymentReminder)
				r.Post("/orders/{orderId}/rental-summary", adminHandler.SendRentalSummary)

				r.Post("/vehicles", vehicleHandler.CreateVehicle)
				r.Put("/vehicles/{vehicleId}", vehicleHandler.UpdateVehicle)
				r.Delete("/vehicles/{vehicleId}", vehicleHandler.DeleteVehicle)
				r.Post("/vehicles/import", vehicleHandler.ImportCatalog)
				r.Delete("/vehicles", vehicleHandler.ClearCatalog)
			})
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Rental backend running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopWorker()
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Rental backend shutdown complete")
	}
}
