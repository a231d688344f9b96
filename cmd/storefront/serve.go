package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/thread-storefront/internal/cache"
	"github.com/fjod/thread-storefront/internal/catalog"
	"github.com/fjod/thread-storefront/internal/config"
	h "github.com/fjod/thread-storefront/internal/http"
	"github.com/fjod/thread-storefront/internal/identity"
	"github.com/fjod/thread-storefront/internal/publisher"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/fjod/thread-storefront/pkg/logger"
	"github.com/fjod/thread-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.New("storefront", cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()
			zap.ReplaceGlobals(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().String("http-port", "8080", "HTTP listen port")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := openStore(startCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ns := repository.NewNamespace(cfg.AppID)
	cartCache := openCache(startCtx, cfg, log)

	var orderPublisher interface {
		service.OrderPublisher
		Close() error
	} = publisher.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		orderPublisher = publisher.NewKafkaPublisher(cfg.KafkaTopic, log, cfg.KafkaBrokers...)
		log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer orderPublisher.Close()

	auth, err := identity.NewService(store, ns, cfg.JWTSecret, cfg.TokenTTL, log)
	if err != nil {
		// public pages keep working; protected views redirect to login
		log.Error("identity provider unavailable, protected views disabled", zap.Error(err))
		auth = nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewServerMetrics(reg, "api")

	catalogSvc := service.NewCatalogService(store, ns, log)
	if cfg.SeedCatalog {
		products, err := catalog.Seed()
		if err != nil {
			return err
		}
		n, err := catalogSvc.SeedIfEmpty(startCtx, products)
		if err != nil {
			log.Warn("catalog seed failed", zap.Error(err))
		} else if n > 0 {
			log.Info("catalog seeded", zap.Int("products", n))
		}
	}

	drafts := service.NewDraftStore(service.DraftTTL)
	defer drafts.Close()

	cartSvc := service.NewCartService(store, ns, cartCache, catalogSvc, log)
	wishlistSvc := service.NewWishlistService(store, ns, cartSvc, log)
	ordersSvc := service.NewOrderService(store, ns)

	router := h.NewRouter(h.Deps{
		Auth:           auth,
		Catalog:        catalogSvc,
		Cart:           cartSvc,
		Wishlist:       wishlistSvc,
		Checkout:       service.NewCheckoutService(cartSvc, store, ns, drafts, orderPublisher, m, log),
		Orders:         ordersSvc,
		Account:        service.NewAccountService(ordersSvc, wishlistSvc),
		Metrics:        m,
		Gatherer:       reg,
		Logger:         log,
		BootstrapToken: cfg.BootstrapToken,
		RequestTimeout: cfg.RequestTimeout,
		MaxRequestBody: cfg.MaxRequestBody,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC carries only health and reflection for health checks and grpcurl
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(cfg.KafkaBrokers) > 0 {
		reconciler := publisher.NewConsumer(cfg.KafkaTopic, publisher.DefaultReconcilerGroup,
			reconcileCart(cartSvc, log), log, cfg.KafkaBrokers...)
		defer reconciler.Close()
		g.Go(func() error {
			reconciler.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("http server starting", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc health server starting", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

// reconcileCart removes lines that a placed order bought but the checkout
// could not clear.
func reconcileCart(cart *service.CartService, log *zap.Logger) publisher.OrderPlacedHandler {
	return func(ctx context.Context, event publisher.OrderPlacedEvent) error {
		removed, err := cart.RemoveOrderedLines(ctx, event.UserID, event.Items)
		if err != nil {
			return fmt.Errorf("reconcile cart for %s: %w", event.OrderNumber, err)
		}
		if removed > 0 {
			log.Info("cart reconciled after order",
				zap.String("order_number", event.OrderNumber),
				zap.String("user_id", event.UserID),
				zap.Int("lines_removed", removed))
		}
		return nil
	}
}

// openCache returns the Redis cart cache, or a cache that always misses when
// Redis is not configured or not reachable.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) cache.CartCache {
	if cfg.RedisAddr == "" {
		return cache.Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, cart cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		client.Close()
		return cache.Noop{}
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisCache(client, cfg.AppID)
}
