package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Durations take Go syntax ("30s", "2m") and list keys take comma-separated
values. The value is validated before config.toml is written.

Examples:
  huddle config set webhook.public_base_url https://abc123.ngrok.app
  huddle config set tangent.strike_window 3m
  huddle config set eventstream.brokers "kafka-1:9092,kafka-2:9092"`

const unsetLongDesc string = `Restore a configuration value to its default.

Examples:
  huddle config unset llm.model
  huddle config unset topic.interval`

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value",
		Long:              setLongDesc,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkKey(key); err != nil {
				return err
			}

			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			if err := f.Set(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(display(key, value)),
			)
			return nil
		},
	}
}

func newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unset <key>",
		Short:             "Restore a configuration value to its default",
		Long:              unsetLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkKey(key); err != nil {
				return err
			}

			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			if err := f.Unset(key); err != nil {
				return err
			}
			value, err := f.Get(key)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Reset %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(key))
			printValue(cmd.OutOrStdout(), key, value)
			return nil
		},
	}
}
