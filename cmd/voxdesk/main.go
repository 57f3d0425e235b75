package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"voxdesk/internal/app"
	"voxdesk/internal/assistant"
	"voxdesk/internal/config"
)

const help = `Type a command, or:
  /voice        speak one command
  /listen       toggle continuous listening
  /mute         toggle spoken replies
  /file <path>  transcribe an audio file and run it
  /quit         exit`

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "voxdesk.yaml", "Config file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (overrides config)")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	noVoice := cli.Bool("no-voice", false, "Disable microphone input")
	cli.Parse()

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}

	// Chat output owns stdout; logs go to stderr.
	logger := app.NewLogger(os.Stderr, *logLevel)
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{
		Voice:     !*noVoice,
		Observers: []assistant.Observer{assistant.NewChatView(os.Stdout)},
	})
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	go a.Assistant.Run(ctx)

	fmt.Println("🤖 voxdesk ready.", help)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if !run(ctx, a, line) {
			return
		}
	}
}

// run handles one input line and reports whether to keep going.
func run(ctx context.Context, a *app.App, line string) bool {
	as := a.Assistant

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return false

	case "/help":
		fmt.Println(help)

	case "/voice":
		if _, _, err := as.Voice(ctx); err != nil {
			fmt.Println("⚠️", err)
		}

	case "/listen":
		if as.ToggleListening(ctx) {
			fmt.Println("🎧 Continuous listening on. /listen again to stop.")
		}

	case "/mute":
		as.SetMuted(!as.State().Muted())

	case "/file":
		if a.Ear == nil {
			fmt.Println("⚠️ speech recognition is not available")
			break
		}
		text, err := a.Ear.TranscribeFile(ctx, strings.TrimSpace(arg))
		if err != nil {
			fmt.Println("⚠️", err)
			break
		}
		if _, err := as.Text(ctx, text); err != nil {
			fmt.Println("⚠️", err)
		}

	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Println("Unknown command. /help lists them.")
			break
		}
		if _, err := as.Text(ctx, line); err != nil {
			fmt.Println("⚠️", err)
		}
	}
	return true
}
