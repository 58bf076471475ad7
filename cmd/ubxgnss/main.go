package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ubxgnss/internal/config"
	"ubxgnss/internal/gnss"
	"ubxgnss/internal/logging"
	"ubxgnss/internal/metrics"
	"ubxgnss/internal/udp"
	"ubxgnss/internal/web"
)

func main() {
	var configPath string
	var hwReset bool
	flag.StringVar(&configPath, "config", "./ubxgnss.yaml", "Path to YAML config")
	flag.BoolVar(&hwReset, "hw-reset", false, "Pulse the reset line before boot (needs gnss.gpio.reset)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogBuffer(2000)
	logger := logging.New(cfg.Logging, logs)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, logs, hwReset); err != nil {
		logger.Error("ubxgnss stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger, logs *web.LogBuffer, hwReset bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	variant, err := buildVariant(cfg.GNSS)
	if err != nil {
		return err
	}
	hw, err := openHardware(cfg.GNSS, logger)
	if err != nil {
		return err
	}
	defer hw.Close()

	reg := metrics.NewRegistry()
	dev := gnss.New(hw.tr, variant, gnss.Options{
		Logger:       logger.Named("gnss"),
		Recorder:     metrics.NewDriver(reg),
		Reset:        hw.reset,
		BootTime:     cfg.GNSS.BootTime,
		PollInterval: cfg.GNSS.PollInterval,
	})
	if hwReset {
		if err := dev.HardwareReset(); err != nil {
			return err
		}
	}

	svc := gnss.NewService(dev, gnss.ServiceConfig{
		Configure:     cfg.GNSS.Configure,
		UpdateTimeout: cfg.GNSS.UpdateTimeout,
		AntennaEvery:  cfg.GNSS.AntennaPoll,
	}, logger.Named("service"))

	logger.Info("ubxgnss starting",
		zap.String("bus", cfg.GNSS.Bus),
		zap.String("variant", variant.Name()),
		zap.Bool("configure", cfg.GNSS.Configure),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Close()

	if cfg.UDP.Enable {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			return err
		}
		defer b.Close()
		logger.Info("udp publisher", zap.String("dest", b.Dest()), zap.Duration("interval", cfg.UDP.Interval))
		go udp.NewPublisher(b, svc.Snapshot, cfg.UDP.Interval, logger.Named("udp")).Run(ctx)
	}

	if cfg.Web.Enable {
		h := web.Handler(web.NewStatus(cfg.GNSS.Bus, svc.Snapshot), logs, metrics.Handler(reg))
		go func() {
			if err := web.Serve(ctx, cfg.Web.Listen, h); err != nil && ctx.Err() == nil {
				logger.Error("web server stopped", zap.Error(err))
				cancel()
			}
		}()
		logger.Info("web server", zap.String("listen", cfg.Web.Listen))
	}

	<-ctx.Done()
	logger.Info("ubxgnss stopping")
	return nil
}
