package sessionscmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/dotdir"
)

const listLongDesc string = `List stored sessions, most recently updated first.

The active session, resumed by "chatstream chat" and the TUI, is marked.

Examples:
  chatstream sessions list
  chatstream sessions list --json`

const listShortDesc string = "List stored sessions"

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.Store.ListSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sessions)
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, cliui.DimStyle.Render("No sessions yet."))
				return nil
			}

			state, err := dotdir.NewManager().LoadActiveState(a.Dir)
			if err != nil {
				return err
			}
			activeID := ""
			if state != nil {
				activeID = state.SessionID
			}

			for _, s := range sessions {
				fmt.Fprintln(out, cliui.SessionLine(s, s.ID == activeID))
			}
			return nil
		},
	}

	addStorageFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sessions as JSON")

	return cmd
}
