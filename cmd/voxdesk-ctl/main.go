package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"voxdesk/internal/config"
	"voxdesk/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: voxdesk-ctl [flags] <command> [text...]

commands:
  trigger         record and handle one spoken command
  text <words>    handle a typed command
  listen          toggle continuous listening
  mute | unmute   switch spoken replies off or on
  status          show daemon state

flags:
`)
	cli.PrintDefaults()
}

func main() {
	configPath := cli.StringP("config", "c", "voxdesk.yaml", "Config file path")
	socket := cli.StringP("socket", "s", "", "Control socket path (overrides config)")
	timeout := cli.DurationP("timeout", "t", 2*time.Minute, "How long to wait for the daemon")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	path := *socket
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		path = cfg.Socket
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := ipc.Send(ctx, path, ipc.Request{Cmd: args[0], Text: strings.Join(args[1:], " ")})
	if err != nil {
		fmt.Println("voxdesk-daemon not running:", err)
		os.Exit(1)
	}

	if resp.Error != "" {
		fmt.Fprintln(os.Stderr, resp.Error)
		os.Exit(1)
	}
	fmt.Println(resp.Text)
	if !resp.OK {
		os.Exit(1)
	}
}
