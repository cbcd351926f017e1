package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/rnboctl/internal/actuator"
	"codeberg.org/mutker/rnboctl/internal/config"
	"codeberg.org/mutker/rnboctl/internal/control"
	"codeberg.org/mutker/rnboctl/internal/discovery"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"codeberg.org/mutker/rnboctl/internal/metrics"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
	"codeberg.org/mutker/rnboctl/internal/pid"
	"codeberg.org/mutker/rnboctl/internal/resolve"
	"codeberg.org/mutker/rnboctl/internal/telemetry"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	log := logger.Default()
	log.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logError(log, err, "Another instance is running")
		return 1
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel, log)

	bank, err := actuator.Open(cfg.Actuator, log.WithComponent("actuator"))
	if err != nil {
		logError(log, err, "Failed to open actuator")
		return 1
	}
	defer func() {
		if err := bank.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close actuator")
		}
	}()

	act := actuator.NewController(bank, log.WithComponent("actuator"))

	address, err := resolveAddress(ctx, cfg.Device, log)
	if err != nil {
		if rerr := act.Release(); rerr != nil {
			log.Error().Err(rerr).Msg("Failed to release actuator")
		}
		if ctx.Err() != nil {
			return 0
		}
		logError(log, err, "Failed to resolve device")
		return 1
	}

	exporter := metrics.NewExporter()
	metricsDone := make(chan struct{})
	if cfg.Metrics.Enabled() {
		go func() {
			defer close(metricsDone)
			if err := exporter.Serve(ctx, cfg.Metrics.Listen, log.WithComponent("metrics")); err != nil {
				log.Error().Err(err).Msg("Metrics endpoint failed")
			}
		}()
	} else {
		close(metricsDone)
	}

	collector, err := telemetry.NewService(cfg.Telemetry, log.WithComponent("telemetry"))
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry unavailable, continuing without it")
		collector, _ = telemetry.NewService(telemetry.DefaultConfig(), log)
	}
	defer func() {
		if err := collector.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close telemetry")
		}
	}()

	client := oscquery.NewClient(address,
		oscquery.WithTimeout(cfg.Query.Timeout),
		oscquery.WithFetchObserver(exporter.ObserveFetch),
	)

	disc := discovery.NewController(client, act, cfg.Discovery, log.WithComponent("discovery"),
		discovery.WithStateHook(exporter.ObserveDiscoveryState),
		discovery.WithAttemptHook(exporter.ObserveDiscoveryAttempt),
	)

	loop := control.NewLoop(client, disc, act, cfg.Control, log.WithComponent("control"),
		control.WithObserver(exporter),
		control.WithObserver(telemetry.NewObserver(collector, log.WithComponent("telemetry"))),
	)

	log.Info().
		Str("address", client.URL()).
		Str("driver", cfg.Actuator.Driver).
		Msg("Starting rnboctl")

	err = loop.Run(ctx)
	exporter.Released()
	cancel()
	<-metricsDone

	cleanup(log)

	if err != nil {
		logError(log, err, "Control loop failed")
		return 1
	}

	return 0
}

func resolveAddress(ctx context.Context, cfg resolve.Config, log logger.Logger) (string, error) {
	resolver, err := resolve.New(cfg, log.WithComponent("resolve"))
	if err != nil {
		return "", err
	}

	return resolver.Resolve(ctx)
}

func handleSignals(ctx context.Context, cancel context.CancelFunc, log logger.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		log.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func logError(log logger.Logger, err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		log.ErrorWithCode(appErr).Msg(msg)
		return
	}

	log.Error().Err(err).Msg(msg)
}

func cleanup(log logger.Logger) {
	log.Info().Msg("Exiting...")
}
