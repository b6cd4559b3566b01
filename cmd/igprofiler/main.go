package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"igprofiler/pkg/browser"
	"igprofiler/pkg/config"
	"igprofiler/pkg/logger"
	"igprofiler/pkg/scraper"
	"igprofiler/pkg/server"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	browserPath = flag.String("browser-path", "", "Path to the browser executable")
	port        = flag.Int("port", 0, "Listening port")
	sampleSize  = flag.Int("sample-size", 0, "Default number of posts to sample")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	flags := make(map[string]interface{})
	if *browserPath != "" {
		flags["browser-path"] = *browserPath
	}
	if *port != 0 {
		flags["port"] = *port
	}
	if *sampleSize != 0 {
		flags["sample-size"] = *sampleSize
	}
	if *logLevel != "" {
		flags["log-level"] = *logLevel
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.InfoWithFields("igprofiler starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"sample_size": cfg.Scrape.DefaultSampleSize,
	})

	b, err := browser.Launch(cfg.Browser, log)
	if err != nil {
		log.WithError(err).Fatal("failed to launch browser")
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.WithError(err).Warn("failed to close browser")
		}
	}()

	profiler := scraper.New(b, cfg.Scrape, log)
	srv := server.New(profiler, cfg.Server, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("shutdown complete")
}
