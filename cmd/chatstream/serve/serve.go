// Package servecmder provides the serve command for running the development
// completion server.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/api"
	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/logger"
	storageutils "github.com/papercomputeco/chatstream/pkg/storage/utils"
)

type serveCommander struct {
	listen        string
	format        string
	tokenDelay    string
	burst         uint
	storageDriver string
	sqlitePath    string
	postgresDSN   string
	logFile       string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagFormat,
	config.FlagTokenDelay,
	config.FlagBurst,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
}

const serveLongDesc string = `Run the chatstream development completion server.

The server echoes every prompt back as a streamed completion, one word per
frame, so clients can be exercised without a real model:

  POST /api/chat            Stream a reply (?format=ndjson|sse, ?malformed=true)
  GET  /api/models          List the model catalog
  GET  /api/sessions        List stored sessions
  GET  /api/sessions/:id    Show a stored session
  GET  /ping                Health check

Sessions are read from the configured store, so pointing the server at the
same SQLite file as "chatstream chat" exposes your local conversations.

Examples:
  chatstream serve
  chatstream serve --format sse --token-delay 100ms
  chatstream serve --storage memory --listen :9090
  chatstream serve --log-file ./serve.log`

const serveShortDesc string = "Run the development completion server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := app.LoadConfig(cmd, serveFlags...)
			if err != nil {
				return err
			}

			cmder.logger = app.NewLogger(cmd)
			if cmder.logFile != "" {
				debug, _ := cmd.Flags().GetBool("debug")
				fileLogger, closer, err := openLogFile(cmder.logFile, debug)
				if err != nil {
					return err
				}
				defer closer.Close()
				cmder.logger = logger.Multi(cmder.logger, fileLogger)
			}

			return cmder.run(cmd, cfg, dir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.Flags, config.FlagTokenDelay, &cmder.tokenDelay)
	config.AddUintFlag(cmd, config.Flags, config.FlagBurst, &cmder.burst)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

// openLogFile returns a JSON logger appending to path. Debug logs carry
// their source location.
func openLogFile(path string, debug bool) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithDebug(debug),
		logger.WithSource(debug),
	), f, nil
}

// serverConfig converts the [server] section into api.Config.
func serverConfig(cfg config.ServerConfig) (api.Config, error) {
	if cfg.Format != config.FormatNDJSON && cfg.Format != config.FormatSSE {
		return api.Config{}, fmt.Errorf("unknown streaming format %q (expected %s or %s)",
			cfg.Format, config.FormatNDJSON, config.FormatSSE)
	}

	delay, err := cfg.TokenDelayDuration()
	if err != nil {
		return api.Config{}, fmt.Errorf("parsing server.token_delay: %w", err)
	}

	return api.Config{
		ListenAddr: cfg.Listen,
		Format:     cfg.Format,
		TokenDelay: delay,
		RateLimit:  cfg.RateLimit,
		Burst:      int(cfg.Burst),
	}, nil
}

func (c *serveCommander) run(cmd *cobra.Command, cfg *config.Config, dir string) error {
	apiConfig, err := serverConfig(cfg.Server)
	if err != nil {
		return err
	}

	driver, err := storageutils.NewDriver(cmd.Context(), cfg.Storage, dir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	catalog := chat.NewCatalog(cfg.Models, cfg.Client.Model)
	server := api.NewServer(apiConfig, driver, catalog.Models(), c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
