package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taproom-services/internal/app"
	"taproom-services/internal/config"
	httpapi "taproom-services/internal/http"
	"taproom-services/internal/http/handlers"
	"taproom-services/internal/jobs"
	"taproom-services/internal/logger"
	"taproom-services/internal/queue"
	"taproom-services/internal/shopify"
	"taproom-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer backend.Close()

	squareClient := app.SquareClient(cfg)
	wsServer := ws.New(nil, log, cfg.WSHeartbeatInterval, cfg.CorsAllowedOrigins)
	menuService := app.MenuService(cfg, backend.Stores, squareClient, wsServer, log)
	wsServer.Menus = menuService

	processor := &jobs.Processor{
		Menu:     menuService,
		Notifier: app.Notifier(ctx, cfg, log),
		Logger:   log,
	}

	var enqueuer jobs.Enqueuer
	var inline *jobs.InlineEnqueuer
	if qc := connectQueue(cfg, log); qc != nil {
		defer qc.Close()
		enqueuer = jobs.QueueEnqueuer{Client: qc}
		if cfg.RabbitMQWorkerMode == "daemon" {
			log.Info("job worker enabled", zap.String("mode", "daemon"), zap.String("queue", queue.JobsQueue))
			go func() {
				err := qc.ConsumeWithRetry(ctx, queue.JobsQueue, processor.Handle, cfg.JobMaxRetries, cfg.JobRetryDelay, log)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error("consumer stopped", zap.Error(err))
				}
			}()
		} else {
			log.Info("job worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
		}
	} else {
		log.Info("running jobs inline (RABBITMQ_URL is empty or unreachable)")
		inline = &jobs.InlineEnqueuer{Processor: processor, Timeout: cfg.MenuReconcileTimeout + time.Minute, Logger: log}
		enqueuer = inline
	}

	h := &handlers.Handler{
		Logger: log,
		Config: cfg,
		Menu:   menuService,
		Square: squareClient,
		Stores: backend.Stores,
		Jobs:   enqueuer,
	}
	if objects := app.ObjectStore(ctx, cfg, log); objects != nil {
		h.Storage = objects
	}
	shop := shopify.NewClient(shopify.Config{
		StoreDomain:     cfg.ShopifyStoreDomain,
		StorefrontToken: cfg.ShopifyStorefrontToken,
		APIVersion:      cfg.ShopifyAPIVersion,
	}, nil)
	if shop.Configured() {
		h.Shop = shop
	} else {
		log.Info("shop disabled (SHOPIFY_STORE_DOMAIN is empty)")
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(log, cfg, h, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.MenuReconcileTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("taproom api ready", zap.String("base", "/api"), zap.String("store", backend.Name))
		log.Info("menu ws ready", zap.String("path", "/ws/menu"))
		log.Info("taproom services listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if inline != nil {
		inline.Wait()
	}
}

// connectQueue dials RabbitMQ and declares the jobs topology. Outside
// production a broker failure falls back to inline jobs.
func connectQueue(cfg config.Config, log *zap.Logger) *queue.Client {
	if cfg.RabbitMQURL == "" {
		return nil
	}
	fail := func(msg string, err error) {
		if cfg.IsProduction() {
			log.Fatal(msg, zap.Error(err))
		}
		log.Warn(msg+"; continuing without broker", zap.Error(err))
	}

	qc, err := queue.New(cfg.RabbitMQURL)
	if err != nil {
		fail("rabbitmq connection failed", err)
		return nil
	}
	if err := queue.EnsureJobsTopology(qc); err != nil {
		fail("rabbitmq jobs topology failed", err)
		_ = qc.Close()
		return nil
	}
	log.Info("rabbitmq enabled", zap.String("exchange", queue.JobsExchange), zap.String("queue", queue.JobsQueue))
	return qc
}
