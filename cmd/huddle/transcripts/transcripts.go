// Package transcriptscmder provides the transcripts command that lists
// journaled meetings.
package transcriptscmder

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/cmd/huddle/stack"
	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/journal"
)

const transcriptsLongDesc string = `List journaled meetings, newest first.

Each line shows the meeting id, the number of journaled utterances and when
the journal was last written. Use the id with "huddle summary" or "huddle ask".`

const transcriptsShortDesc string = "List journaled meetings"

func NewTranscriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: transcriptsShortDesc,
		Long:  transcriptsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.NewViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			dir, err := stack.ResolveJournalDir(cfg, configDir)
			if err != nil {
				return err
			}
			return Run(cmd.OutOrStdout(), journal.New(dir))
		},
	}

	return cmd
}

// Run lists the meetings in j.
func Run(w io.Writer, j *journal.Journal) error {
	infos, err := j.List()
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Transcripts:"),
		cliui.DimStyle.Render(j.Dir()),
	)
	cliui.RenderTranscripts(w, infos, time.Now())
	fmt.Fprintln(w)
	return nil
}
