// Package huddlecmder
package huddlecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/huddle/cmd/huddle/ask"
	configcmder "github.com/papercomputeco/huddle/cmd/huddle/config"
	servecmder "github.com/papercomputeco/huddle/cmd/huddle/serve"
	summarycmder "github.com/papercomputeco/huddle/cmd/huddle/summary"
	transcriptscmder "github.com/papercomputeco/huddle/cmd/huddle/transcripts"
	versioncmder "github.com/papercomputeco/huddle/cmd/version"
)

const huddleLongDesc string = `Huddle is a meeting moderator bot.

It joins your video calls, keeps a searchable transcript, announces topic
changes, nudges the room back to the agenda when it drifts, and answers
questions about what was said.

Run the server using:
  huddle serve                        Receive webhooks and serve the API

Work with past meetings:
  huddle transcripts                  List journaled meetings
  huddle summary <meeting-id>         Summarize a meeting
  huddle ask <meeting-id> <question>  Ask about a meeting`

const huddleShortDesc string = "Huddle - Meeting Moderator"

func NewHuddleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "huddle",
		Short:        huddleShortDesc,
		Long:         huddleLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .huddle/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(summarycmder.NewSummaryCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(transcriptscmder.NewTranscriptsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
