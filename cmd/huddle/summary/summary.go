// Package summarycmder provides the summary command that summarizes a
// journaled meeting.
package summarycmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/cmd/huddle/stack"
	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/logger"
)

type SummaryCommander struct {
	raw       bool
	debug     bool
	configDir string
}

const summaryLongDesc string = `Summarize a meeting from its transcript journal.

The transcript is read from the journal directory (transcripts/ inside the
.huddle directory unless transcript.journal_dir is set) and summarized with
the configured inference provider. Long meetings are summarized in chunks
and merged.

Examples:
  huddle summary 1f0c8e2a-5d7b-4c1e-9a3f-2b6d8e0c4a71
  huddle summary 1f0c8e2a-5d7b-4c1e-9a3f-2b6d8e0c4a71 --raw > notes.md`

const summaryShortDesc string = "Summarize a journaled meeting"

func NewSummaryCmd() *cobra.Command {
	cmder := &SummaryCommander{}

	cmd := &cobra.Command{
		Use:   "summary <meeting-id>",
		Short: summaryShortDesc,
		Long:  summaryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the markdown without terminal styling")

	return cmd
}

func (c *SummaryCommander) run(ctx context.Context, w io.Writer, meetingID string) error {
	v, err := config.NewViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := stack.New(cfg, stack.Options{
		ConfigDir: c.configDir,
		Logger:    logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty), logger.WithWriter(os.Stderr)),
	})
	if err != nil {
		return err
	}
	defer st.Close()

	return Run(ctx, w, st, meetingID, c.raw)
}

// Run summarizes meetingID and writes the result to w.
func Run(ctx context.Context, w io.Writer, st *stack.Stack, meetingID string, raw bool) error {
	var (
		markdown   string
		confidence float64
	)
	err := cliui.Step(os.Stderr, "Summarizing "+meetingID, func() error {
		summary, err := st.Moderator.Summarize(ctx, meetingID)
		if err != nil {
			return err
		}
		markdown, confidence = summary.Markdown, summary.Confidence
		return nil
	})
	if err != nil {
		return fmt.Errorf("summarizing meeting: %w", err)
	}

	if raw {
		_, err = fmt.Fprintln(w, markdown)
		return err
	}

	rendered, err := cliui.RenderMarkdown(markdown)
	if err != nil {
		// Fall back to the plain markdown.
		rendered = markdown + "\n"
	}
	_, err = fmt.Fprintf(w, "%s  %s %s\n\n", rendered, cliui.KeyStyle.Render("confidence:"), cliui.Confidence(confidence))
	return err
}
