// Package decodecmder provides the decode command for decoding captured
// completion streams.
package decodecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/app"
	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/decoder"
)

const (
	outputText   = "text"
	outputEvents = "events"
	outputJSON   = "json"
)

type decodeCommander struct {
	output string
	follow bool

	logger *slog.Logger
}

var decodeFlags = []string{
	config.FlagChunkSize,
	config.FlagDoneSentinel,
}

const decodeLongDesc string = `Decode a captured completion stream.

Reads NDJSON ({"data":"..."}) or SSE (data: {...}) lines from a file, or
from stdin when no file is given, and prints what a client would see.

Output formats:
  text      The decoded reply text (default)
  events    One event per line: content("..."), parse_warning("..."), done
  json      One JSON object per event

With --follow the file is tailed as it grows, like "tail -f", until the
stream ends on a [DONE] sentinel (with --done-sentinel) or Ctrl+C.

Examples:
  chatstream send --raw "hi" > capture.log && chatstream decode capture.log
  curl -sN localhost:8080/api/chat -d '{"message":"hi"}' | chatstream decode -o events
  chatstream decode --follow --done-sentinel capture.log`

const decodeShortDesc string = "Decode a captured completion stream"

func NewDecodeCmd() *cobra.Command {
	cmder := &decodeCommander{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: decodeShortDesc,
		Long:  decodeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch cmder.output {
			case outputText, outputEvents, outputJSON:
			default:
				return fmt.Errorf("unknown output format %q (expected text, events or json)", cmder.output)
			}

			cfg, _, err := app.LoadConfig(cmd, decodeFlags...)
			if err != nil {
				return err
			}
			cmder.logger = app.NewLogger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			src, closeSrc, err := cmder.source(ctx, cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			defer closeSrc()

			return cmder.decode(ctx, src, cfg.Client, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, new(uint))
	config.AddBoolFlag(cmd, config.Flags, config.FlagDoneSentinel, new(bool))
	cmd.Flags().StringVarP(&cmder.output, "output", "o", outputText, "Output format: text, events or json")
	cmd.Flags().BoolVarP(&cmder.follow, "follow", "F", false, "Keep reading as the file grows")

	return cmd
}

// source opens the stream to decode. Following requires a regular file.
func (c *decodeCommander) source(ctx context.Context, stdin io.Reader, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		if c.follow {
			return nil, nil, fmt.Errorf("--follow needs a file argument")
		}
		return stdin, func() {}, nil
	}

	if c.follow {
		f, err := newFollowReader(ctx, args[0])
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("opening capture: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (c *decodeCommander) decode(ctx context.Context, src io.Reader, cfg config.ClientConfig, out, errOut io.Writer) error {
	r := decoder.NewReader(src,
		decoder.WithChunkSize(int(cfg.ChunkSize)),
		decoder.WithDecoderOptions(decoder.WithDoneSentinel(cfg.DoneSentinel)),
	)

	enc := json.NewEncoder(out)
	warnings := 0

	err := decoder.Drain(ctx, r, func(ev decoder.Event) error {
		if ev.Kind == decoder.KindParseWarning {
			warnings++
			c.logger.Debug("skipping malformed stream line", "line", ev.Raw)
		}

		switch c.output {
		case outputEvents:
			_, err := fmt.Fprintln(out, ev.String())
			return err
		case outputJSON:
			return enc.Encode(ev)
		default:
			if ev.Kind == decoder.KindContent {
				_, err := io.WriteString(out, ev.Text)
				return err
			}
			if ev.Kind == decoder.KindDone {
				_, err := fmt.Fprintln(out)
				return err
			}
			return nil
		}
	})
	if c.follow && errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("decoding stream: %w", err)
	}

	if warnings > 0 && c.output == outputText {
		fmt.Fprintf(errOut, "%d malformed line(s) skipped\n", warnings)
	}
	return nil
}
