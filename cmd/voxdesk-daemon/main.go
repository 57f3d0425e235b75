package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"voxdesk/internal/app"
	"voxdesk/internal/config"
	"voxdesk/internal/ipc"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "voxdesk.yaml", "Config file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (overrides config)")
	socket := cli.StringP("socket", "s", "", "Control socket path (overrides config)")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides config)")
	noVoice := cli.Bool("no-voice", false, "Disable microphone input")
	cli.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load env file", "path", *envFile, "err", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	if *socket != "" {
		cfg.Socket = *socket
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := app.NewLogger(os.Stdout, cfg.Log.Level)
	log.SetDefault(logger)

	log.Info("Booting up")

	if err := run(cfg, logger, !*noVoice); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}

	log.Info("Shutting down")
}

// run owns every resource the daemon opens, so they are released before main
// decides the exit status.
func run(cfg *config.Config, logger *log.Logger, voice bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{Voice: voice})
	if err != nil {
		return fmt.Errorf("build assistant: %w", err)
	}
	defer a.Close()

	go a.Assistant.Run(ctx)

	if a.Bus != nil {
		go func() {
			if err := a.Bus.Serve(ctx, a.BusHandler()); err != nil {
				log.Warn("Bus connection lost", "err", err)
			}
		}()
	}

	log.Info("Boot up - successful")

	srv := ipc.NewServer(cfg.Socket, ipc.AssistantHandler(ctx, a.Assistant), logger)
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}
	return nil
}
