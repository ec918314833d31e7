// jaspy-nexusd is the network telemetry/topology daemon: it ingests device
// and interface liveness reports, reconciles them against a Postgres
// inventory on a fixed schedule, and serves a weathermap topology view plus
// Prometheus metric projections over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/config"
	"github.com/jaspy-nexus/jaspy-nexus/internal/health"
	"github.com/jaspy-nexus/jaspy-nexus/internal/httpapi"
	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
	"github.com/jaspy-nexus/jaspy-nexus/internal/misscache"
	"github.com/jaspy-nexus/jaspy-nexus/internal/scheduler"
	"github.com/jaspy-nexus/jaspy-nexus/internal/topocache"
	"github.com/jaspy-nexus/jaspy-nexus/pkg/cli"
	"github.com/jaspy-nexus/jaspy-nexus/pkg/version"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "jaspy-nexusd",
	Short:         "Network telemetry and topology daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "jaspy-nexus.yaml", "Path to config file")
	rootCmd.AddCommand(serveCmd, versionCmd, statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("jaspy-nexusd " + version.Info())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running daemon's /healthz endpoint",
	RunE:  runStatus,
}

var addrFlag string

func init() {
	statusCmd.Flags().StringVar(&addrFlag, "addr", "http://localhost:8080", "Base URL of the running daemon")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	log := logging.WithComponent("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
		<-sigCh
		log.Warn("second signal received, forcing exit")
		os.Exit(1)
	}()

	gateway, err := inventory.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return fmt.Errorf("connecting to inventory: %w", err)
	}
	defer gateway.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var messageBus bus.Bus = bus.NewRedisBus(redisClient, cfg.Redis.Channel)
	if cfg.EventLogPath != "" {
		recorder, err := bus.NewFileRecorder(cfg.EventLogPath, bus.RotationConfig{MaxSize: 100 << 20, MaxBackups: 5})
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer recorder.Close()
		messageBus = bus.Fanout{messageBus, recorder}
	}

	store := imds.New(clock.Real{}, gateway, messageBus, cfg.DeviceTTL)
	misses := misscache.New()
	topo := topocache.New(clock.Real{}, gateway, cfg.TopologyCacheTTL.Seconds())

	sched := scheduler.New(store, gateway, misses, cfg.SchedulerPeriod)

	checks := []health.Check{
		&health.PostgresCheck{Pool: gateway.Pool()},
		&health.RedisCheck{Client: redisClient},
		&health.SchedulerCheck{LastTick: sched.LastTick, StaleAfter: cfg.HealthStaleAfter},
	}

	server := httpapi.New(store, gateway, topo, misses, checks)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("error during HTTP shutdown")
		}
	}()

	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		cancel()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	}

	wg.Wait()
	log.Info("shutdown complete")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addrFlag + "/healthz")
	if err != nil {
		return fmt.Errorf("querying %s: %w", addrFlag, err)
	}
	defer resp.Body.Close()

	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("decoding health report: %w", err)
	}

	t := cli.NewTable("CHECK", "STATUS", "MESSAGE", "DURATION")
	for _, r := range report.Results {
		t.Row(r.Check, colorizeStatus(r.Status), cli.Dim(r.Message), r.Duration.Round(time.Millisecond).String())
	}
	t.Flush()
	fmt.Printf("\noverall: %s\n", colorizeStatus(report.Overall))

	if report.Overall == health.StatusCritical {
		os.Exit(1)
	}
	return nil
}

func colorizeStatus(s health.Status) string {
	switch s {
	case health.StatusOK:
		return cli.Green(string(s))
	case health.StatusWarning:
		return cli.Yellow(string(s))
	case health.StatusCritical:
		return cli.Red(string(s))
	default:
		return string(s)
	}
}
