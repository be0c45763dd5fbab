package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/roboteqbms/internal/bms"
	"codeberg.org/mutker/roboteqbms/internal/config"
	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/lifecycle"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"codeberg.org/mutker/roboteqbms/internal/metrics"
	"codeberg.org/mutker/roboteqbms/internal/pid"
	"codeberg.org/mutker/roboteqbms/internal/serialport"
	"codeberg.org/mutker/roboteqbms/internal/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(cfg.Port); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.FatalWithCode(appErr).Str("port", cfg.Port).Msg("Failed to lock serial port")
		}
		logger.Fatal().Err(err).Msg("Failed to lock serial port")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	err := run(ctx)
	cancel()

	if rmErr := pid.Remove(cfg.Port); rmErr != nil {
		logger.Warn().Err(rmErr).Msg("Failed to remove PID file")
	}

	if err != nil {
		logger.Error().Err(err).Str("error_code", string(errors.CodeOf(err))).Msg("Error in main loop")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func run(ctx context.Context) error {
	session := uuid.NewString()

	logger.Info().
		Str("session", session).
		Str("port", cfg.Port).
		Int("baud", cfg.Baud).
		Dur("interval", cfg.Interval).
		Msg("Starting BMS driver")

	sinks := telemetry.Fanout{
		telemetry.NewLogSink(logger.With("telemetry"), !logger.IsService()),
	}
	var componentOpts []lifecycle.Option

	if cfg.Redis.Enabled {
		redisCfg := telemetry.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			Prefix:   cfg.Redis.Prefix,
		}
		client, err := telemetry.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		redisSink := telemetry.NewRedisSink(client, redisCfg.Prefix, logger.With("redis"))
		sinks = append(sinks, redisSink)
		componentOpts = append(componentOpts, lifecycle.WithObserver(redisSink))
	}

	collector, err := metrics.NewService(metrics.Config{
		DBPath:       cfg.Metrics.DBPath,
		BatchSize:    cfg.Metrics.BatchSize,
		BatchTimeout: cfg.Metrics.BatchTimeout,
		Enabled:      cfg.Metrics.Enabled,
	}, logger.With("metrics"))
	if err != nil {
		return err
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metrics")
		}
	}()
	if cfg.Metrics.Enabled {
		sinks = append(sinks, metrics.Sink(collector))
	}

	serialCfg := serialport.Config{
		Path:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	}
	open := func() (bms.Transport, error) {
		t, err := serialport.Open(serialCfg, logger.With("serial"))
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	component, err := lifecycle.New(lifecycle.Config{
		Interval:          cfg.Interval,
		Reconnect:         cfg.Reconnect,
		ReconnectInterval: cfg.ReconnectInterval,
	}, open, componentOpts...)
	if err != nil {
		return err
	}

	poller := bms.NewPoller(
		bms.WithSink(sinks),
		bms.WithHealthReporter(component),
		bms.WithSession(session),
		bms.WithLogger(logger.With("poller")),
	)

	return component.Run(ctx, poller)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
