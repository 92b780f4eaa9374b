package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "replyflowd",
		Usage:   "comment automation daemon (answers the comments section)",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/replyflowd/replyflow.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for caches and counters; in-memory fallback when empty",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":8300",
			EnvVars: []string{"REPLYFLOW_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":8301",
			EnvVars: []string{"REPLYFLOW_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "graph-api-host",
			Usage:   "scheme and hostname of the Meta Graph API",
			Value:   "https://graph.facebook.com",
			EnvVars: []string{"GRAPH_API_HOST"},
		},
		&cli.StringFlag{
			Name:    "meta-app-id",
			EnvVars: []string{"META_APP_ID"},
		},
		&cli.StringFlag{
			Name:    "meta-app-secret",
			Usage:   "app secret, used for OAuth exchange and webhook payload signatures",
			EnvVars: []string{"META_APP_SECRET"},
		},
		&cli.StringFlag{
			Name:    "webhook-verify-token",
			Usage:   "shared token echoed back during webhook subscription handshake",
			EnvVars: []string{"WEBHOOK_VERIFY_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "oauth-redirect-url",
			Usage:   "redirect URL registered with the Meta app for OAuth callbacks",
			EnvVars: []string{"OAUTH_REDIRECT_URL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		configOTEL("replyflowd")

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return fmt.Errorf("setting up database: %w", err)
		}
		store, err := rulestore.NewGormStore(db)
		if err != nil {
			return err
		}

		srv, err := NewServer(store, Config{
			Logger:           logger,
			RedisURL:         cctx.String("redis-url"),
			GraphAPIHost:     cctx.String("graph-api-host"),
			MetaAppID:        cctx.String("meta-app-id"),
			MetaAppSecret:    cctx.String("meta-app-secret"),
			VerifyToken:      cctx.String("webhook-verify-token"),
			OAuthRedirectURL: cctx.String("oauth-redirect-url"),
		})
		if err != nil {
			return fmt.Errorf("failed to construct server: %w", err)
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				os.Exit(-1)
			}
		}()

		return srv.RunAPI(cctx.String("bind"))
	},
}
