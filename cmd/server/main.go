package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/wealthflow-planner/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-planner/internal/adapter/indexdata"
	"github.com/simaogato/wealthflow-planner/internal/adapter/logging"
	"github.com/simaogato/wealthflow-planner/internal/adapter/repository/file"
	"github.com/simaogato/wealthflow-planner/internal/adapter/repository/postgres"
	"github.com/simaogato/wealthflow-planner/internal/config"
	"github.com/simaogato/wealthflow-planner/internal/usecase/measurement"
	"github.com/simaogato/wealthflow-planner/internal/usecase/projection"
	"github.com/simaogato/wealthflow-planner/internal/usecase/seeder"
	"github.com/simaogato/wealthflow-planner/internal/usecase/summary"
)

const connectAttempts = 5

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	seedPath := flag.String("seed", "", "portfolio YAML file stored on startup when its version changed")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	// 2. Setup Database
	db, err := connect(cfg.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 3. Initialize Repositories (Postgres)
	portfolioRepo := postgres.NewPortfolioRepository(db)
	measurementRepo := postgres.NewMeasurementRepository(db)
	scenarioRepo := postgres.NewScenarioRepository(db)
	cacheRepo := postgres.NewProjectionCacheRepository(db)
	indexRepo := indexdata.NewRepository(cfg.Index.PrimePath, cfg.Index.CPIPath)

	// 4. Seed the portfolio file, if any
	if *seedPath != "" {
		if err := seed(ctx, *seedPath, seeder.NewPortfolioSeeder(portfolioRepo, scenarioRepo, measurementRepo)); err != nil {
			log.Fatalf("Failed to seed portfolio: %v", err)
		}
	}

	// 5. Initialize Services (Use Cases)
	projectionService := projection.NewProjectionService(portfolioRepo, measurementRepo, scenarioRepo, indexRepo, cacheRepo)
	projectionService.Sink = logging.NewSink(logger)
	summaryService := summary.NewSummaryService(portfolioRepo)
	measurementService := measurement.NewMeasurementService(portfolioRepo, measurementRepo)

	// 6. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			logging.UnaryInterceptor(logger),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken),
		),
	)
	grpcadapter.RegisterProjectionServiceServer(grpcServer,
		grpcadapter.NewServer(projectionService, summaryService, measurementService))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.Server.GRPCPort, err)
	}

	// Start server in a goroutine
	go func() {
		log.Printf("gRPC server listening on %s", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer)
	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

// connect opens the database, retrying while Postgres starts up
func connect(connStr string) (*postgres.DB, error) {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		var db *postgres.DB
		if db, err = postgres.NewDB(connStr); err == nil {
			return db, nil
		}
		log.Printf("Database not ready (attempt %d/%d): %v", attempt, connectAttempts, err)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

// seed stores the portfolio file unless the database already holds its version
func seed(ctx context.Context, path string, s *seeder.PortfolioSeeder) error {
	store, err := file.Load(path)
	if err != nil {
		return err
	}
	p, err := store.Portfolios().GetByID(ctx, store.PortfolioID())
	if err != nil {
		return err
	}
	measurements, err := store.Measurements().ListByPortfolio(ctx, p.ID)
	if err != nil {
		return err
	}

	written, err := s.Seed(ctx, seeder.Seed{Portfolio: p, Scenarios: store.Scenarios(), Measurements: measurements})
	if err != nil {
		return err
	}
	if written {
		log.Printf("Seeded portfolio %q (%s) version %d", p.Name, p.ID, p.Version)
	} else {
		log.Printf("Portfolio %q is up to date", p.Name)
	}
	return nil
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
