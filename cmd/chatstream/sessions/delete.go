package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/dotdir"
	"github.com/papercomputeco/chatstream/pkg/utils"
)

const deleteLongDesc string = `Delete a stored session and its messages.

Deleting the active session makes the next "chatstream chat" start a new one.

Examples:
  chatstream sessions delete 3f2a9c1e`

const deleteShortDesc string = "Delete a session"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   deleteShortDesc,
		Long:    deleteLongDesc,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.FindSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := a.Store.DeleteSession(cmd.Context(), s.ID); err != nil {
				return fmt.Errorf("deleting session: %w", err)
			}

			ddm := dotdir.NewManager()
			state, err := ddm.LoadActiveState(a.Dir)
			if err != nil {
				return err
			}
			if state != nil && state.SessionID == s.ID {
				if err := a.ClearState(); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s %s\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(utils.ShortID(s.ID)),
				cliui.DimStyle.Render(s.Title),
			)
			return nil
		},
	}

	addStorageFlags(cmd)

	return cmd
}
