package configcmder

import (
	"github.com/spf13/cobra"
)

const getLongDesc string = `Get a configuration value.

Prints the value of key from config.toml, or its default when unset.
Credentials are masked.

Examples:
  huddle config get llm.provider
  huddle config get topic.interval`

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Long:              getLongDesc,
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
			value, err := f.Get(key)
			if err != nil {
				return err
			}

			printValue(cmd.OutOrStdout(), key, value)
			return nil
		},
	}
}
