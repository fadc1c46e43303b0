// Package modelscmder provides the models command for listing the model
// catalog.
package modelscmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/config"
)

type modelsCommander struct {
	remote bool
	json   bool
}

var modelsFlags = []string{
	config.FlagTarget,
	config.FlagModel,
	config.FlagTimeout,
}

const modelsLongDesc string = `List the models offered for selection.

By default the catalog comes from the [[models]] entries of config.toml.
With --remote the catalog is fetched from the chat server instead.
The model used for new sessions is marked.

Examples:
  chatstream models
  chatstream models --remote --target http://localhost:8080`

const modelsShortDesc string = "List the model catalog"

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.LoadConfig(cmd, modelsFlags...)
			if err != nil {
				return err
			}

			models := chat.NewCatalog(cfg.Models, cfg.Client.Model).Models()
			if cmder.remote {
				client, err := app.NewClient(cfg.Client, app.NewLogger(cmd))
				if err != nil {
					return err
				}
				models, err = client.ListModels(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetching models from %s: %w", client.Target(), err)
				}
			}

			return cmder.print(cmd.OutOrStdout(), models, cfg.Client.Model)
		},
	}

	for _, key := range modelsFlags {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Fetch the catalog from the chat server")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print models as JSON")

	return cmd
}

func (c *modelsCommander) print(out io.Writer, models []chat.Model, selected string) error {
	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	width := 0
	for _, m := range models {
		width = max(width, len(m.ID))
	}

	for _, m := range models {
		marker := " "
		if m.ID == selected {
			marker = cliui.SuccessMark
		}
		fmt.Fprintf(out, "%s %s  %s  %s\n",
			marker,
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", width, m.ID)),
			cliui.ValueStyle.Render(m.Label()),
			cliui.DimStyle.Render(m.Description),
		)
	}
	return nil
}
