// Package app assembles the chatstream components shared by the CLI
// commands: the streaming client, the session store, the event publisher and
// the recorder pool that connects them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/decoder"
	"github.com/papercomputeco/chatstream/pkg/dotdir"
	"github.com/papercomputeco/chatstream/pkg/eventstream"
	eventutils "github.com/papercomputeco/chatstream/pkg/eventstream/utils"
	"github.com/papercomputeco/chatstream/pkg/logger"
	"github.com/papercomputeco/chatstream/pkg/recorder"
	"github.com/papercomputeco/chatstream/pkg/storage"
	storageutils "github.com/papercomputeco/chatstream/pkg/storage/utils"
)

// App holds the components of one CLI invocation.
type App struct {
	Config  *config.Config
	Dir     string
	Client  *chat.Client
	Catalog *chat.Catalog
	Store   storage.Driver
	Logger  *slog.Logger

	publisher eventstream.Publisher
	recorder  *recorder.Pool
	dotdir    *dotdir.Manager
}

// LoadConfig resolves the effective configuration for cmd: registered flags
// named by keys, then CHATSTREAM_* environment variables, then config.toml,
// then defaults. It also returns the .chatstream/ directory in use.
func LoadConfig(cmd *cobra.Command, keys ...string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, "", err
	}

	return cfg, dir, nil
}

// NewLogger builds the command logger from the global --debug and
// --log-json flags. Logs go to stderr so they never interleave with
// streamed output.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	jsonOut, _ := cmd.Flags().GetBool("log-json")
	return newLogger(os.Stderr, debug, jsonOut)
}

func newLogger(w io.Writer, debug, jsonOut bool) *slog.Logger {
	return logger.New(
		logger.WithWriter(w),
		logger.WithDebug(debug),
		logger.WithJSON(jsonOut),
		logger.WithPretty(!jsonOut && cliui.IsTerminal(w)),
	)
}

// NewClient builds the streaming client from the [client] section. extra
// options are applied last.
func NewClient(cfg config.ClientConfig, log *slog.Logger, extra ...chat.ClientOption) (*chat.Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("parsing client.timeout: %w", err)
	}

	opts := []chat.ClientOption{
		chat.WithPath(cfg.Path),
		chat.WithTimeout(timeout),
		chat.WithChunkSize(int(cfg.ChunkSize)),
		chat.WithDecoderOptions(decoder.WithDoneSentinel(cfg.DoneSentinel)),
		chat.WithLogger(log),
	}
	return chat.NewClient(cfg.Target, append(opts, extra...)...), nil
}

// New opens the configured store and publisher and starts the recorder.
// dir is the .chatstream/ directory holding the default SQLite file and the
// active chat state.
func New(ctx context.Context, cfg *config.Config, dir string, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	client, err := NewClient(cfg.Client, log)
	if err != nil {
		return nil, err
	}

	store, err := storageutils.NewDriver(ctx, cfg.Storage, dir, log)
	if err != nil {
		return nil, err
	}

	publisher, err := eventutils.NewPublisher(cfg.Events, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	pool, err := recorder.NewPool(&recorder.Config{
		Driver:    store,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		publisher.Close()
		store.Close()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Dir:       dir,
		Client:    client,
		Catalog:   chat.NewCatalog(cfg.Models, cfg.Client.Model),
		Store:     store,
		Logger:    log,
		publisher: publisher,
		recorder:  pool,
		dotdir:    dotdir.NewManager(),
	}, nil
}

// Conversation returns a conversation on the configured model that records
// replies through the recorder pool.
func (a *App) Conversation() *chat.Conversation {
	return a.conversation(a.Client)
}

func (a *App) conversation(streamer chat.Streamer) *chat.Conversation {
	return chat.NewConversation(streamer, a.Catalog.Default().ID,
		chat.WithStore(a.Store),
		chat.WithRecorder(a.recorder),
		chat.WithConversationLogger(a.Logger),
	)
}

// Resume opens the session recorded in the active state, if there is one
// and it still exists. It reports whether a session was resumed.
func (a *App) Resume(ctx context.Context, conv *chat.Conversation) (bool, error) {
	state, err := a.dotdir.LoadActiveState(a.Dir)
	if err != nil {
		return false, err
	}
	if state == nil || state.SessionID == "" {
		if state != nil && state.Model != "" {
			conv.SetModel(state.Model)
		}
		return false, nil
	}

	if _, err := conv.Open(ctx, state.SessionID); err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			a.Logger.Debug("active session no longer stored", "session_id", state.SessionID)
			return false, a.dotdir.ClearActiveState(a.Dir)
		}
		return false, fmt.Errorf("opening session %s: %w", state.SessionID, err)
	}

	if state.Model != "" {
		conv.SetModel(state.Model)
	}
	return true, nil
}

// SaveState records the active session and model so the next run resumes
// them.
func (a *App) SaveState(conv *chat.Conversation) error {
	state := &dotdir.ActiveState{Model: conv.Model()}
	if s, ok := conv.Active(); ok && len(s.Messages) > 0 {
		state.SessionID = s.ID
	}
	return a.dotdir.SaveActiveState(state, a.Dir)
}

// ClearState forgets the active session.
func (a *App) ClearState() error {
	return a.dotdir.ClearActiveState(a.Dir)
}

// Close drains the recorder before closing the publisher and the store.
func (a *App) Close() error {
	a.recorder.Close()
	return errors.Join(a.publisher.Close(), a.Store.Close())
}
