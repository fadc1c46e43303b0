// Package sendcmder provides the send command for streaming a single reply.
package sendcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
)

type sendCommander struct {
	resume bool
	raw    bool
	quiet  bool
}

const sendLongDesc string = `Send one message and stream the reply to stdout.

Tokens are printed as they are decoded. The exchange is recorded as a new
session unless --continue appends it to the active session instead. Use
"-" as the message to read it from stdin.

With --raw the response body is copied to stdout verbatim instead of the
decoded text, which is handy for capturing streams for "chatstream decode".

Examples:
  chatstream send "What is a monad?"
  chatstream send --model llama3.2 --continue "and a functor?"
  echo "hello" | chatstream send -
  chatstream send --raw "hello" > capture.ndjson`

const sendShortDesc string = "Send one message and stream the reply"

func NewSendCmd() *cobra.Command {
	cmder := &sendCommander{}

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: sendShortDesc,
		Long:  sendLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	app.AddClientFlags(cmd)
	cmd.Flags().BoolVarP(&cmder.resume, "continue", "c", false, "Append to the active session")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Copy the raw response body to stdout")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Omit the reply status line")

	return cmd
}

func (c *sendCommander) run(cmd *cobra.Command, args []string) error {
	text, err := messageText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, dir, err := app.LoadConfig(cmd, app.ClientFlags...)
	if err != nil {
		return err
	}

	log := app.NewLogger(cmd)
	a, err := app.New(cmd.Context(), cfg, dir, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if c.raw {
		a.Client, err = app.NewClient(cfg.Client, log, chat.WithTee(out))
		if err != nil {
			return err
		}
	}

	conv := a.Conversation()
	if c.resume {
		if _, err := a.Resume(cmd.Context(), conv); err != nil {
			return err
		}
	}

	var onUpdate func(*chat.Message)
	if !c.raw {
		onUpdate = cliui.NewStreamWriter(out).Update
	}

	reply, sendErr := conv.Send(cmd.Context(), text, onUpdate)
	fmt.Fprintln(out)

	if !c.quiet && !c.raw {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", cliui.ReplyStatus(reply))
	}

	if err := a.SaveState(conv); err != nil {
		log.Warn("saving active state", "error", err)
	}

	return sendErr
}

// messageText joins the message arguments, reading stdin for "-".
func messageText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading message from stdin: %w", err)
		}
		args = []string{string(b)}
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", errors.New("message is empty")
	}
	return text, nil
}
