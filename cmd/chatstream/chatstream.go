// Package chatstreamcmder
package chatstreamcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/chatstream/cmd/chatstream/chat"
	configcmder "github.com/papercomputeco/chatstream/cmd/chatstream/config"
	decodecmder "github.com/papercomputeco/chatstream/cmd/chatstream/decode"
	initcmder "github.com/papercomputeco/chatstream/cmd/chatstream/init"
	modelscmder "github.com/papercomputeco/chatstream/cmd/chatstream/models"
	sendcmder "github.com/papercomputeco/chatstream/cmd/chatstream/send"
	servecmder "github.com/papercomputeco/chatstream/cmd/chatstream/serve"
	sessionscmder "github.com/papercomputeco/chatstream/cmd/chatstream/sessions"
	tuicmder "github.com/papercomputeco/chatstream/cmd/chatstream/tui"
	versioncmder "github.com/papercomputeco/chatstream/cmd/version"
)

const chatstreamLongDesc string = `chatstream streams chat completions to your terminal.

It decodes newline-delimited JSON and SSE completion streams incrementally,
keeps conversations as sessions, and ships a development server to test
against.

Get started:
  chatstream serve             Run the development completion server
  chatstream chat              Chat in the terminal
  chatstream tui               Chat in a full screen terminal UI
  chatstream decode out.log    Decode a captured stream`

const chatstreamShortDesc string = "chatstream - streamed chat completions"

func NewChatstreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chatstream",
		Short:        chatstreamShortDesc,
		Long:         chatstreamLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .chatstream/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sendcmder.NewSendCmd())
	cmd.AddCommand(decodecmder.NewDecodeCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
