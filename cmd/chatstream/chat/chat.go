// Package chatcmder provides the chat command for an interactive streamed
// conversation in the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/utils"
)

type chatCommander struct {
	render bool
	fresh  bool

	app  *app.App
	conv *chat.Conversation
	out  io.Writer
}

const chatLongDesc string = `Start an interactive chat session.

Replies are streamed token by token as the server produces them. Every
exchange is recorded in the configured session store, and the next
"chatstream chat" resumes the session you left unless --new is passed.

Commands inside the session:
  /new              Start a new session
  /model [id]       Show the model catalog or switch model
  /sessions         List stored sessions
  /open <id>        Resume a stored session (unique id prefix)
  /help             Show this help
  /exit             Quit (Ctrl+D works too)

With --render each reply is rendered as markdown once it is complete
instead of being streamed as plain text.

Examples:
  chatstream chat
  chatstream chat --model llama3.2 --target http://localhost:11434
  chatstream chat --render --new`

const chatShortDesc string = "Interactive streamed chat"

const replHelp = `  /new              Start a new session
  /model [id]       Show the model catalog or switch model
  /sessions         List stored sessions
  /open <id>        Resume a stored session
  /exit             Quit`

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := app.LoadConfig(cmd, app.ClientFlags...)
			if err != nil {
				return err
			}

			cmder.app, err = app.New(cmd.Context(), cfg, dir, app.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer cmder.app.Close()

			cliui.ConfigureColor(cmd.OutOrStdout())
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	app.AddClientFlags(cmd)
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render complete replies as markdown")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new session instead of resuming")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.out = out
	c.conv = c.app.Conversation()

	if c.fresh {
		if err := c.app.ClearState(); err != nil {
			return err
		}
	} else {
		resumed, err := c.app.Resume(ctx, c.conv)
		if err != nil {
			return err
		}
		if resumed {
			s, _ := c.conv.Active()
			fmt.Fprintf(out, "\n  %s Resuming %s %s\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(utils.ShortID(s.ID)),
				cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(s.Messages))),
			)
		}
	}

	if _, ok := c.conv.Active(); !ok {
		c.conv.NewSession("")
		fmt.Fprintf(out, "\n  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(c.conv.Model()))
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.command(ctx, input)
			if err != nil {
				fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
			}
			if quit {
				break
			}
			continue
		}

		c.send(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return c.app.SaveState(c.conv)
}

// send streams one reply. Failures are shown inline and keep the REPL going.
func (c *chatCommander) send(ctx context.Context, input string) {
	fmt.Fprint(c.out, cliui.AssistantPrompt)

	var reply *chat.Message
	if c.render {
		_ = cliui.Step(c.out, "thinking", func() error {
			var err error
			reply, err = c.conv.Send(ctx, input, nil)
			return err
		})
		if rendered, err := cliui.RenderMarkdown(reply.Content, 0); err == nil {
			fmt.Fprint(c.out, rendered)
		} else {
			fmt.Fprintln(c.out, reply.Content)
		}
	} else {
		reply, _ = c.conv.Send(ctx, input, cliui.NewStreamWriter(c.out).Update)
		fmt.Fprintln(c.out)
	}

	fmt.Fprintf(c.out, "%s\n\n", cliui.ReplyStatus(reply))
}

// command runs a slash command and reports whether the REPL should exit.
func (c *chatCommander) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		fmt.Fprintf(c.out, "%s\n\n", replHelp)

	case "/new":
		s := c.conv.NewSession("")
		fmt.Fprintf(c.out, "  %s New conversation %s\n\n",
			cliui.SuccessMark, cliui.IDStyle.Render(utils.ShortID(s.ID)))

	case "/model":
		return false, c.model(arg)

	case "/sessions":
		return false, c.sessions(ctx)

	case "/open":
		if arg == "" {
			return false, fmt.Errorf("usage: /open <id>")
		}
		s, err := c.app.FindSession(ctx, arg)
		if err != nil {
			return false, err
		}
		if _, err := c.conv.Open(ctx, s.ID); err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "  %s Resumed %s %s\n\n",
			cliui.SuccessMark,
			cliui.IDStyle.Render(utils.ShortID(s.ID)),
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(s.Messages))),
		)

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}

	return false, nil
}

func (c *chatCommander) model(id string) error {
	if id == "" {
		for _, m := range c.app.Catalog.Models() {
			marker := " "
			if m.ID == c.conv.Model() {
				marker = cliui.SuccessMark
			}
			fmt.Fprintf(c.out, "  %s %s  %s\n", marker, cliui.NameStyle.Render(m.ID), cliui.DimStyle.Render(m.Description))
		}
		fmt.Fprintln(c.out)
		return nil
	}

	if _, ok := c.app.Catalog.Lookup(id); !ok {
		return fmt.Errorf("unknown model %q", id)
	}
	c.conv.SetModel(id)
	fmt.Fprintf(c.out, "  %s %s %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(id))
	return nil
}

func (c *chatCommander) sessions(ctx context.Context) error {
	sessions, err := c.conv.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No sessions yet."))
		return nil
	}

	active, _ := c.conv.Active()
	for _, s := range sessions {
		fmt.Fprintf(c.out, "  %s\n", cliui.SessionLine(s, s.ID == active.ID))
	}
	fmt.Fprintln(c.out)
	return nil
}
