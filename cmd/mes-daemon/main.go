package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reconfigmanus/mes-go/internal/adapters/metrics"
	"github.com/reconfigmanus/mes-go/internal/adapters/persistence"
	"github.com/reconfigmanus/mes-go/internal/adapters/station"
	"github.com/reconfigmanus/mes-go/internal/adapters/viz"
	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/tray"
	"github.com/reconfigmanus/mes-go/internal/infrastructure/config"
	"github.com/reconfigmanus/mes-go/internal/infrastructure/database"
	"github.com/reconfigmanus/mes-go/internal/infrastructure/pidfile"
)

var configPath string

// NewRootCommand creates the root command for the MES daemon
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mes-daemon",
		Short: "Manufacturing execution server for tray dispatch",
		Long: `mes-daemon loads the plant topology, station capabilities and the
product plan, then answers station action queries over TCP until
interrupted.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search config.json in ., ./configs, /etc/mes)")

	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dispatch server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			pf := pidfile.New(cfg.Daemon.PIDFile)
			if err := pf.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := pf.Release(); err != nil {
					log.Printf("[MES] Failed to release PID file: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Plant documents
	prod, err := config.LoadProduct(cfg.ProductInfo.ProductsFile, cfg.ProductInfo.ProductType)
	if err != nil {
		return err
	}
	log.Printf("[MES] Producing %q (type %d), plan of %d processes",
		prod.Name, prod.Type, len(prod.Processes))

	graph, err := config.LoadGraph(cfg.ProductionSystem.GraphFile)
	if err != nil {
		return err
	}
	log.Printf("[MES] Plant graph loaded: %d stations", len(graph.StationIDs()))

	processes, err := config.LoadCapabilities(cfg.ProductionSystem.CapabilitiesFile, prod)
	if err != nil {
		return err
	}

	if err := viz.WriteDotFile(graph, cfg.Daemon.GraphExportFile); err != nil {
		// The export is informational only
		log.Printf("[MES] Failed to write graph export: %v", err)
	} else {
		log.Printf("[MES] Graph visualisation written to %s", cfg.Daemon.GraphExportFile)
	}

	// Optional order event journal
	var journal dispatch.Journal
	if cfg.Database.Enabled {
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open journal database: %w", err)
		}
		defer database.Close(db)

		repo, err := persistence.NewGormOrderEventRepository(db)
		if err != nil {
			return err
		}
		defer repo.Close()
		journal = repo
		log.Printf("[MES] Order event journal enabled (%s)", cfg.Database.Type)
	}

	collector := metrics.NewCollector()
	engine := dispatch.NewEngine(graph, order.NewManager(), processes, tray.NewRegistry(), journal, collector)
	engine.CreateOrderBatch(cfg.ProductInfo.InitialOrders)

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics, collector, cfg.Daemon.ShutdownTimeout)
	}

	addr := fmt.Sprintf("%s:%d", cfg.MESService.BindHost, cfg.MESService.BindPort)
	srv := station.NewServer(addr, engine, collector)
	return srv.Serve(ctx)
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig, collector *metrics.Collector, shutdownTimeout time.Duration) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[MES] Metrics endpoint on http://%s%s", srv.Addr, cfg.Path)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[MES] Metrics server error: %v", err)
	}
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
