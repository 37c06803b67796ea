package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/cufee/botto-hare/config"
	db "github.com/cufee/botto-hare/database"
	"github.com/cufee/botto-hare/discord"
	"github.com/cufee/botto-hare/handlers"
	"github.com/cufee/botto-hare/spam"
	"github.com/cufee/botto-hare/watchdog"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "exiting: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "botto-hare",
		Usage:   "community chat moderation, role subscription and idle channel bot",
		Version: versioninfo.Short(),
		Commands: []*cli.Command{
			runCmd,
		},
	}
	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "connect to discord and process events",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "token",
			Usage:    "discord bot token",
			Required: true,
			EnvVars:  []string{"DISCORD_TOKEN", "TOKEN"},
		},
		&cli.StringFlag{
			Name:     "guild-id",
			Required: true,
			EnvVars:  []string{"GUILD_ID"},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "admin command prefix",
			Value:   "!",
			EnvVars: []string{"COMMAND_PREFIX"},
		},
		&cli.IntFlag{
			Name:    "spam-threshold",
			Usage:   "number of distinct channels a duplicate must reach to be flagged",
			Value:   5,
			EnvVars: []string{"SPAM_THRESHOLD"},
		},
		&cli.IntFlag{
			Name:    "spam-timeframe",
			Usage:   "duplicate detection window in seconds",
			Value:   60,
			EnvVars: []string{"SPAM_TIMEFRAME"},
		},
		&cli.IntFlag{
			Name:    "silence-threshold",
			Usage:   "seconds of silence before the monitored channel is nudged",
			Value:   3600,
			EnvVars: []string{"SILENCE_THRESHOLD"},
		},
		&cli.StringFlag{
			Name:    "ui-channel",
			Usage:   "channel watched for inactivity, empty disables the watchdog",
			EnvVars: []string{"UI_CHANNEL_ID"},
		},
		&cli.StringFlag{
			Name:    "nudge-text",
			Value:   config.DefaultNudgeText,
			EnvVars: []string{"NUDGE_TEXT"},
		},
		&cli.StringFlag{
			Name:    "mod-channel",
			Usage:   "channel receiving spam alerts",
			EnvVars: []string{"MOD_CHANNEL_ID"},
		},
		&cli.StringFlag{
			Name:    "mod-ping",
			Usage:   "mention included in spam alerts, eg: <@&role>",
			EnvVars: []string{"MOD_PING"},
		},
		&cli.StringFlag{
			Name:    "landing-channel",
			Usage:   "channel whose join notices trigger the welcome DM",
			EnvVars: []string{"LANDING_CHANNELID"},
		},
		&cli.StringFlag{
			Name:    "admin-ids",
			Usage:   "comma separated user IDs allowed to run admin commands",
			EnvVars: []string{"ADMIN_USERIDS"},
		},
		&cli.StringFlag{
			Name:    "roles",
			Usage:   "role catalog, name|emoji|roleID entries separated by ;",
			EnvVars: []string{"ROLES"},
		},
		&cli.StringFlag{
			Name:    "registry-backend",
			Usage:   "anchor registry storage: file or bolt",
			Value:   config.BackendFile,
			EnvVars: []string{"REGISTRY_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "registry-path",
			Value:   "messages.txt",
			EnvVars: []string{"REGISTRY_PATH"},
		},
		&cli.DurationFlag{
			Name:    "registry-timeout",
			Value:   5 * time.Second,
			EnvVars: []string{"REGISTRY_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to serve prometheus metrics on",
			EnvVars: []string{"METRICS_LISTEN"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			EnvVars: []string{"DEBUG"},
		},
	},
	Action: runBot,
}

func configFromCLI(cctx *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Token = cctx.String("token")
	cfg.GuildID = cctx.String("guild-id")
	cfg.Prefix = cctx.String("prefix")
	cfg.Debug = cctx.Bool("debug")
	cfg.SpamThreshold = cctx.Int("spam-threshold")
	cfg.SpamTimeframe = time.Duration(cctx.Int("spam-timeframe")) * time.Second
	cfg.SilenceThreshold = time.Duration(cctx.Int("silence-threshold")) * time.Second
	cfg.MonitoredChannel = cctx.String("ui-channel")
	cfg.NudgeText = cctx.String("nudge-text")
	cfg.ModChannel = cctx.String("mod-channel")
	cfg.ModPing = cctx.String("mod-ping")
	cfg.LandingChannel = cctx.String("landing-channel")
	cfg.AdminIDs = config.ParseIDList(cctx.String("admin-ids"))
	cfg.RegistryBackend = cctx.String("registry-backend")
	cfg.RegistryPath = cctx.String("registry-path")
	cfg.RegistryTimeout = cctx.Duration("registry-timeout")
	cfg.MetricsListenAddr = cctx.String("metrics-listen")

	roles, err := config.ParseRoleSpecs(cctx.String("roles"))
	if err != nil {
		return nil, err
	}
	cfg.Roles = roles
	return cfg, cfg.Validate()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openRegistryLog(cfg *config.Config) (db.Log, error) {
	if cfg.RegistryBackend == config.BackendBolt {
		return db.OpenBoltLog(cfg.RegistryPath)
	}
	return db.OpenFileLog(cfg.RegistryPath)
}

func runBot(cctx *cli.Context) error {
	cfg, err := configFromCLI(cctx)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registryLog, err := openRegistryLog(cfg)
	if err != nil {
		return err
	}
	registry := db.NewRegistry(registryLog, cfg.RegistryTimeout, logger.Named("registry"))
	defer registry.Close()

	session, err := discord.New(cfg.Token)
	if err != nil {
		return err
	}

	bot := &handlers.Bot{
		Config:   cfg,
		Platform: session,
		Registry: registry,
		Tracker:  spam.NewTracker(cfg.SpamThreshold, cfg.SpamTimeframe),
		Logger:   logger.Named("handlers"),
	}
	if cfg.MonitoredChannel != "" {
		bot.Watchdog = watchdog.New(cfg.SilenceThreshold, session.BotID, time.Now(), bot.Nudge, logger.Named("watchdog"))
	}
	bot.Register(session.Discord())

	if err := session.Open(); err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if bot.Watchdog != nil {
		g.Go(func() error { return bot.Watchdog.Run(ctx) })
	}
	g.Go(func() error { return bot.SweepSpam(ctx) })
	g.Go(func() error { return bot.RotatePresence(ctx, session.SetStatus, cfg.PresenceInterval) })

	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsListenAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("bot running",
		zap.String("guild_id", cfg.GuildID),
		zap.Int("spam_threshold", cfg.SpamThreshold),
		zap.Duration("spam_timeframe", cfg.SpamTimeframe),
		zap.Bool("watchdog", bot.Watchdog != nil),
		zap.Int("anchors", registry.Len()),
	)
	err = g.Wait()
	logger.Info("shutting down")
	return err
}
