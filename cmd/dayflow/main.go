package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dayflow/internal/config"
	"dayflow/internal/generate"
	appLog "dayflow/internal/log"
	"dayflow/internal/notify"
	"dayflow/internal/parse"
	"dayflow/internal/reminder"
	"dayflow/internal/storage"
	"dayflow/internal/store"
	"dayflow/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	verbose    bool
}

func main() {
	flags := parseFlags()

	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("dayflow starting", "version", "0.1.0-dev")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	if flags.once {
		if err := runOnce(os.Stdin, os.Stdout); err != nil {
			appLog.Error("parse failed", err)
			os.Exit(1)
		}
		return
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"data_dir", conf.DataDir,
		"reminder_lead_minutes", conf.ReminderLeadMinutes,
		"reminder_cron", conf.ReminderCron,
		"generation_model", conf.Generation.Model,
	)

	db, err := storage.Open(conf.DataDir)
	if err != nil {
		appLog.Error("failed to open record store", err, "data_dir", conf.DataDir)
		os.Exit(1)
	}
	defer db.Close()

	st := store.Open(db)
	center := notify.NewCenter()
	lead := time.Duration(conf.ReminderLeadMinutes) * time.Minute
	rem := reminder.New(st, center, center, lead, conf.Location())
	gen := generate.NewClient(conf.Generation)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := rem.Start(conf.ReminderCron); err != nil {
		appLog.Error("failed to start reminder scheduler", err)
		os.Exit(1)
	}
	defer rem.Stop()

	srv := web.NewServer(conf, st, gen, rem, center)
	if err := web.Serve(ctx, srv); err != nil {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}

	appLog.Info("dayflow exiting")
}

// runOnce parses a markdown schedule from stdin and prints the block
// structure, which is handy for inspecting saved generator output.
func runOnce(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	for _, b := range parse.Schedule(string(data)) {
		marker := ""
		if b.Uncertain {
			marker = " (?)"
		}
		fmt.Fprintf(out, "[%d] %s: %s%s\n", b.ID, b.Time, b.Title, marker)
		for _, t := range b.Tasks {
			fmt.Fprintf(out, "    * %s\n", t.Text)
		}
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./dayflow.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Parse a markdown schedule from stdin, print it, and exit")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
