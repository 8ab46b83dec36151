package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reflux"
	"git.home.luguber.info/inful/reflux/internal/config"
	"git.home.luguber.info/inful/reflux/internal/counter"
	"git.home.luguber.info/inful/reflux/internal/daemon"
	"git.home.luguber.info/inful/reflux/internal/journal"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"reflux.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Demo struct {
		Increments int  `short:"n" help:"Number of increment actions to dispatch" default:"3"`
		Unknown    bool `help:"Also dispatch an unrecognized action to show the identity path"`
	} `cmd:"" help:"Run the counter scenario: initial dispatch, increments, render to stdout"`

	Replay struct {
		Session string `short:"s" help:"Session ID to replay (defaults to the most recent)"`
		Render  bool   `short:"r" help:"Render every replayed step to stdout"`
	} `cmd:"" help:"Replay a journaled session through the reducer"`

	Sessions struct{} `cmd:"" help:"List journaled sessions"`

	Daemon struct{} `cmd:"" help:"Run the store daemon (journal, action bus, metrics, snapshots)"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if CLI.Verbose {
		cfg.Logging.Level = string(config.LogLevelDebug)
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr))

	switch ctx.Command() {
	case "demo":
		if err := runDemo(cfg, CLI.Demo.Increments, CLI.Demo.Unknown); err != nil {
			slog.Error("Demo failed", "error", err)
			os.Exit(1)
		}
	case "replay":
		if err := runReplay(cfg, CLI.Replay.Session, CLI.Replay.Render); err != nil {
			slog.Error("Replay failed", "error", err)
			os.Exit(1)
		}
	case "sessions":
		if err := runSessions(cfg); err != nil {
			slog.Error("Listing sessions failed", "error", err)
			os.Exit(1)
		}
	case "daemon":
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration file written", "path", CLI.Config)
	}
}

// runDemo walks the canonical counter scenario: one initial dispatch
// materializes state and renders "0", then every increment renders the
// new count.
func runDemo(cfg *config.Config, increments int, unknown bool) error {
	ctx := context.Background()

	var opts []reflux.Option[counter.State]
	var sink *journal.Sink

	if cfg.Journal.Enabled {
		j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = j.Close() }()

		sink = journal.NewSink(j, cfg.Session.ID)
		opts = append(opts, reflux.WithSink[counter.State](sink))
	}

	store := reflux.New(counter.Reduce, opts...)
	store.Subscribe(reflux.WriterSubscriber[counter.State](os.Stdout, counter.Render))

	if err := store.Init(ctx); err != nil {
		return err
	}
	for i := 0; i < increments; i++ {
		if err := store.Dispatch(ctx, counter.Increment()); err != nil {
			return err
		}
	}
	if unknown {
		// Unrecognized type: state unchanged, render still runs.
		if err := store.Dispatch(ctx, reflux.NewAction("demo/unknown", nil)); err != nil {
			return err
		}
	}

	state, _ := store.State()
	slog.Info("Demo finished", "count", state.Count)
	if sink != nil {
		slog.Info("Session journaled", "session", sink.SessionID(), "path", cfg.Journal.Path)
	}
	return nil
}

func runReplay(cfg *config.Config, sessionID string, render bool) error {
	ctx := context.Background()

	j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	if sessionID == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return fmt.Errorf("journal %s has no sessions", cfg.Journal.Path)
		}
		sessionID = sessions[len(sessions)-1]
		slog.Info("No session given, replaying most recent", "session", sessionID)
	}

	var subscribers []reflux.SubscriberFunc[counter.State]
	if render {
		subscribers = append(subscribers, reflux.WriterSubscriber[counter.State](os.Stdout, counter.Render))
	}

	state, applied, err := journal.Replay(ctx, j, sessionID, counter.Reduce, subscribers...)
	if err != nil {
		return err
	}

	slog.Info("Replay finished", "session", sessionID, "actions", applied, "count", state.Count)
	fmt.Println(counter.Render(state))
	return nil
}

func runSessions(cfg *config.Config) error {
	j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	sessions, err := j.Sessions(context.Background())
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Println(s)
	}
	return nil
}

func runDaemon(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var d *daemon.Daemon
	var err error
	if _, statErr := os.Stat(CLI.Config); statErr == nil {
		d, err = daemon.NewWithConfigFile(cfg, CLI.Config)
	} else {
		d, err = daemon.New(cfg)
	}
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop daemon: %w", err)
	}

	slog.Info("Daemon stopped successfully")
	return nil
}
