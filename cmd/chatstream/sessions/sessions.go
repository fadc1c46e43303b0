// Package sessionscmder provides the sessions command for inspecting and
// managing stored chat sessions.
package sessionscmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/config"
)

const sessionsLongDesc string = `Inspect and manage stored chat sessions.

Sessions are read from the configured store (storage.driver). Session IDs
may be abbreviated to any unique prefix, such as the short IDs shown by
"chatstream sessions list".

Examples:
  chatstream sessions list
  chatstream sessions show 3f2a9c1e
  chatstream sessions show 3f2a9c1e --render
  chatstream sessions delete 3f2a9c1e`

const sessionsShortDesc string = "Inspect and manage stored chat sessions"

var storageFlags = []string{
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   sessionsShortDesc,
		Long:    sessionsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

func addStorageFlags(cmd *cobra.Command) {
	for _, key := range storageFlags {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}
}

// openApp opens the configured store for a sessions subcommand.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, dir, err := app.LoadConfig(cmd, storageFlags...)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, dir, app.NewLogger(cmd))
}
