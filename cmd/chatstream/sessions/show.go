package sessionscmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
)

const showLongDesc string = `Show the messages of a stored session.

Examples:
  chatstream sessions show 3f2a9c1e
  chatstream sessions show 3f2a9c1e --render
  chatstream sessions show 3f2a9c1e --json`

const showShortDesc string = "Show the messages of a session"

func newShowCmd() *cobra.Command {
	var (
		asJSON bool
		render bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			printSession(out, s, render)
			return nil
		},
	}

	addStorageFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")
	cmd.Flags().BoolVar(&render, "render", false, "Render assistant replies as markdown")

	return cmd
}

func printSession(out io.Writer, s *chat.Session, render bool) {
	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.IDStyle.Render(s.ID))
	fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Title:"), cliui.ValueStyle.Render(s.Title))
	fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(s.Model))
	fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Updated:"), cliui.DimStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04:05")))

	for i := range s.Messages {
		m := &s.Messages[i]
		if m.Role == chat.RoleUser {
			fmt.Fprintf(out, "%s%s\n\n", cliui.UserPrompt, m.Content)
			continue
		}

		content := m.Content
		if render {
			if rendered, err := cliui.RenderMarkdown(content, 0); err == nil {
				content = rendered
			}
		}
		fmt.Fprintf(out, "%s%s\n%s\n\n", cliui.AssistantPrompt, content, cliui.ReplyStatus(m))
	}
}
