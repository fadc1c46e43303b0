// Package tuicmder provides the tui command, a full-screen chat interface
// with a session sidebar and a model picker.
package tuicmder

import (
	"context"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/logger"
)

type tuiCommander struct {
	plain bool
	fresh bool
}

const tuiLongDesc string = `Open the full-screen chat interface.

Replies stream into the message pane as they arrive. The sidebar lists the
stored sessions and the model picker switches the model of the active
session. The session you leave is resumed next time unless --new is passed.

Keys:
  enter       Send the message (open the session in the sidebar)
  esc         Stop the reply being streamed
  tab         Move between the input and the session sidebar
  ctrl+b      Show or hide the sidebar
  ctrl+o      Pick a model
  ctrl+n      Start a new session
  x           Delete the selected session
  pgup/pgdn   Scroll the conversation
  ctrl+c      Quit

Finished replies are rendered as markdown unless --plain is set.`

const tuiShortDesc string = "Full-screen chat interface"

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	app.AddClientFlags(cmd)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Show replies as plain text instead of rendered markdown")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new session instead of resuming")

	return cmd
}

func (c *tuiCommander) run(cmd *cobra.Command) error {
	cfg, dir, err := app.LoadConfig(cmd, app.ClientFlags...)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs are dropped unless
	// --debug asks for them.
	log := app.NewLogger(cmd)
	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		log = logger.Nop()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, dir, log)
	if err != nil {
		return err
	}
	defer a.Close()

	conv := a.Conversation()
	if c.fresh {
		if err := a.ClearState(); err != nil {
			return err
		}
	} else if _, err := a.Resume(ctx, conv); err != nil {
		return err
	}
	if _, ok := conv.Active(); !ok {
		conv.NewSession("")
	}

	model := newTUIModel(ctx, conv, a.Catalog, !c.plain)
	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return err
	}

	return a.SaveState(conv)
}
