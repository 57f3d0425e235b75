package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"voxdesk/internal/app"
	"voxdesk/internal/config"
	"voxdesk/internal/executor"
	"voxdesk/internal/nlu"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: voxdesk-cal [flags] <command>

commands:
  create <when> <title...>   e.g. create "next monday 10am" Team sync
  list                       upcoming events
  delete <id>
  update <id> <when>         move an event

flags:
`)
	cli.PrintDefaults()
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "voxdesk.yaml", "Config file path")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	minutes := cli.IntP("minutes", "m", 60, "Event duration in minutes")
	with := cli.StringP("with", "w", "", "Participants, comma separated names or emails")
	location := cli.String("location", "", "Event location")
	count := cli.IntP("count", "n", 10, "Events to list")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stderr, *logLevel)
	log.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := app.CalendarStore(ctx, cfg.Calendar, true, logger)
	if err != nil {
		fatal(err)
	}
	if store == nil {
		fatal(fmt.Errorf("no Google OAuth client file at %s", cfg.Calendar.Credentials))
	}

	contacts := executor.NewEmail(nil, cfg.Email.Contacts, nil, logger)
	cal := executor.NewCalendar(store, nil, contacts.Resolve, logger)

	switch cmd := args[0]; cmd {
	case "create":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		title := strings.Join(args[2:], " ")
		slots := nlu.Slots{
			"title":        title,
			"datetime":     args[1],
			"duration":     strconv.Itoa(*minutes),
			"participants": *with,
			"location":     *location,
		}
		ev, err := cal.Create(ctx, slots, "")
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Event created: %s at %s (id: %s)\n", ev.Title, ev.Start.Local().Format("Jan 02 2006 03:04 PM"), ev.ID)
		if ev.Link != "" {
			fmt.Println(ev.Link)
		}

	case "list":
		events, err := cal.List(ctx, *count)
		if err != nil {
			fatal(err)
		}
		if len(events) == 0 {
			fmt.Println("No upcoming events.")
			return
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, ev := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ev.Start.Local().Format("Mon Jan 02 15:04"), ev.Title, ev.ID)
		}
		tw.Flush()

	case "delete":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		if err := cal.Delete(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("Event deleted.")

	case "update":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		ev, err := cal.Reschedule(ctx, args[1], strings.Join(args[2:], " "), executor.EventDuration(*minutes))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Event moved to %s.\n", ev.Start.Local().Format("Jan 02 2006 03:04 PM"))

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	log.Error("calendar", "err", err)
	os.Exit(1)
}
