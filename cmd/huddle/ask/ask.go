// Package askcmder provides the ask command that answers a question about a
// journaled meeting.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/cmd/huddle/stack"
	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/logger"
	"github.com/papercomputeco/huddle/pkg/moderator"
)

type AskCommander struct {
	showExcerpts bool
	debug        bool
	configDir    string
}

const askLongDesc string = `Ask a question about a meeting.

The answer is grounded only in the meeting's transcript journal: the most
relevant excerpts are retrieved and handed to the configured inference
provider together with the agenda.

Examples:
  huddle ask 1f0c8e2a-5d7b-4c1e-9a3f-2b6d8e0c4a71 "who owns the budget review?"
  huddle ask 1f0c8e2a-5d7b-4c1e-9a3f-2b6d8e0c4a71 "what did we decide?" --excerpts`

const askShortDesc string = "Ask a question about a journaled meeting"

func NewAskCmd() *cobra.Command {
	cmder := &AskCommander{}

	cmd := &cobra.Command{
		Use:   "ask <meeting-id> <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "))
		},
	}

	cmd.Flags().BoolVarP(&cmder.showExcerpts, "excerpts", "e", false, "Print the transcript excerpts the answer is based on")

	return cmd
}

func (c *AskCommander) run(ctx context.Context, w io.Writer, meetingID, question string) error {
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

	return Run(ctx, w, st.Moderator, meetingID, question, c.showExcerpts)
}

// Run answers question and writes the answer to w.
func Run(ctx context.Context, w io.Writer, mod *moderator.Moderator, meetingID, question string, showExcerpts bool) error {
	answer, err := mod.Ask(ctx, meetingID, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s %s\n",
		cliui.ValueStyle.Render(answer.Answer),
		cliui.KeyStyle.Render("confidence:"),
		cliui.Confidence(answer.Confidence),
	)

	if showExcerpts && len(answer.Excerpts) > 0 {
		fmt.Fprintf(w, "\n  %s\n", cliui.KeyStyle.Render("excerpts:"))
		for _, line := range answer.Excerpts {
			fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render(line))
		}
	}
	fmt.Fprintln(w)
	return nil
}
