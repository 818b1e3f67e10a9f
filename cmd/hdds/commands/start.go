package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naskel/hdds/internal/admin"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/participant"
	"github.com/naskel/hdds/internal/telemetry"
	"github.com/naskel/hdds/internal/transport"
	"github.com/naskel/hdds/pkg/config"
	"github.com/naskel/hdds/pkg/metrics"

	// Registers the Prometheus-backed metrics constructors via init().
	_ "github.com/naskel/hdds/pkg/metrics/prometheus"
)

var (
	startDomain    int
	startName      string
	startTransport string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run a domain participant in the foreground",
	Long: `Start runs one HDDS domain participant until interrupted.

hdds is meant to run under a process supervisor (systemd, a container
runtime, Kubernetes) rather than daemonize itself, so start always runs in
the foreground; Ctrl+C or SIGTERM trigger a graceful shutdown.

--domain, --name, and --transport override the corresponding configuration
file values, taking precedence over both the file and HDDS_* environment
variables.

Examples:
  # Start using the default config file
  hdds start

  # Start with an explicit config file and domain override
  hdds start --config /etc/hdds/config.yaml --domain 4

  # Start with environment variable overrides
  HDDS_LOGGING_LEVEL=DEBUG hdds start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&startDomain, "domain", -1, "override the configured DDS domain ID")
	startCmd.Flags().StringVar(&startName, "name", "", "override the configured participant name")
	startCmd.Flags().StringVar(&startTransport, "transport", "", "override the configured transport kind (udp, tcp, quic)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	applyStartFlagOverrides(cfg)

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "hdds",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "hdds",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("hdds starting", logger.DomainID(cfg.Domain), "version", Version)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		if srv := metrics.NewServer(cfg.Metrics.Port); srv != nil {
			metricsServer = srv
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server error", logger.Err(err))
				}
			}()
			logger.Info("metrics server listening", "port", cfg.Metrics.Port)
		}
	}

	p, err := participant.Build(buildParticipantConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build participant: %w", err)
	}
	defer p.Close()

	logger.Info("participant built", logger.DomainID(cfg.Domain), logger.Participant(p.GUID().Prefix[:]))

	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer = admin.NewServer(p, cfg.Admin.Port, admin.Config{
			JWTAuth:      cfg.Admin.JWTAuth,
			JWTSecretEnv: cfg.Admin.JWTSecretEnv,
		})
		go func() {
			if err := adminServer.Start(ctx); err != nil {
				logger.Error("admin API error", logger.Err(err))
			}
		}()
	}

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		p.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("participant is running, press Ctrl+C to stop")

	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received, stopping participant")
	cancel()
	<-runDone

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	logger.Info("participant stopped")
	return nil
}

func applyStartFlagOverrides(cfg *config.Config) {
	if startDomain >= 0 {
		cfg.Domain = uint32(startDomain)
	}
	if startName != "" {
		cfg.Participant.Name = startName
	}
	if startTransport != "" {
		cfg.Transport.Kind = startTransport
	}
}

func buildParticipantConfig(cfg *config.Config) participant.Config {
	return participant.Config{
		Domain:        cfg.Domain,
		Name:          cfg.Participant.Name,
		TransportKind: transport.Kind(cfg.Transport.Kind),
		MulticastAddr: cfg.Transport.MetatrafficMulticastAddr,
		MulticastTTL:  cfg.Transport.MulticastTTL,
		EnableSHM:     cfg.Transport.EnableSHM,
		Interfaces: transport.InterfaceFilter{
			Allow: cfg.Transport.Interfaces.Allow,
			Deny:  cfg.Transport.Interfaces.Deny,
		},
		LeaseDuration:       cfg.Participant.LeaseDuration,
		AnnouncePeriod:      cfg.Participant.AnnouncePeriod,
		DiscoveryServers:    cfg.Discovery.DiscoveryServers,
		DialectProbeWindow:  cfg.Discovery.DialectProbeWindow,
		DialectProbeTimeout: cfg.Discovery.DialectProbeTimeout,
	}
}
