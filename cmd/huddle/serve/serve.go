// Package servecmder provides the serve command that runs the webhook and API
// server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/huddle/api"
	"github.com/papercomputeco/huddle/api/mcp"
	"github.com/papercomputeco/huddle/cmd/huddle/stack"
	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/logger"
)

type ServeCommander struct {
	debug     bool
	configDir string
	viper     *viper.Viper
	logger    *slog.Logger
}

const serveLongDesc string = `Run the huddle server.

The server receives realtime transcript, chat and bot status webhooks from the
meeting provider, keeps each meeting's transcript in memory and journals it to
disk, posts topic updates and tangent nudges to the meeting chat, and answers
questions that mention the bot.

It also serves the meeting API:
  POST /meetings                  Send a bot into a meeting
  GET  /meetings/:id/status       Lifecycle status, topic and recording url
  GET  /meetings/:id/transcript   Full transcript
  GET  /meetings/:id/summary      Markdown summary
  POST /qa                        Ask a question about a meeting
  GET  /transcripts               Journaled meetings
  /mcp                            MCP tools (when enabled)

Flags override config.toml values and HUDDLE_* environment variables.`

const serveShortDesc string = "Run the huddle server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.viper, err = config.NewViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return config.BindFlags(cmder.viper, cmd, config.ServeFlags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.RegisterFlags(cmd, config.ServeFlags)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	cfg, err := config.Load(c.viper)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	closeLog, err := c.initLogger(cfg.Server)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := stack.New(cfg, stack.Options{
		ConfigDir: c.configDir,
		Logger:    c.logger,
		Live:      true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			c.logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	apiConfig := api.Config{
		ListenAddr:   cfg.Server.Listen,
		WebhookToken: cfg.Webhook.Token,
	}
	if cfg.MCP.Enabled {
		mcpServer, err := mcp.NewServer(st.Moderator, c.logger.With("component", "mcp"))
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiConfig.MCPHandler = mcpServer
	}

	server, err := api.NewServer(apiConfig, st.Moderator, c.logger.With("component", "api"))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if cfg.Webhook.PublicBaseURL == "" {
		c.logger.Warn("webhook.public_base_url is not set, POST /meetings is unavailable")
	}
	c.logger.Info("huddle ready",
		"listen", cfg.Server.Listen,
		"bot_name", cfg.Provider.BotName,
		"llm_provider", cfg.LLM.Provider,
		"mcp", cfg.MCP.Enabled,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		return server.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initLogger builds the terminal logger and, when a log file is configured,
// tees every record into it as JSON.
func (c *ServeCommander) initLogger(sc config.ServerConfig) (func(), error) {
	format, err := logger.ParseFormat(sc.LogFormat)
	if err != nil {
		return nil, err
	}
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithFormat(format))

	if sc.LogFile == "" {
		return func() {}, nil
	}

	fileLogger, f, err := logger.File(sc.LogFile, logger.WithDebug(c.debug))
	if err != nil {
		return nil, err
	}
	c.logger = logger.Multi(c.logger, fileLogger)

	return func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
		}
	}, nil
}
