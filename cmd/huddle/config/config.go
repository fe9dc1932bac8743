// Package configcmder provides the config command for managing persistent
// huddle configuration stored in the .huddle/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/config"
)

const configLongDesc string = `Manage persistent huddle configuration.

Configuration is stored as config.toml in the .huddle/ directory. The serve
command reads it under its flags and HUDDLE_* environment variables, which
take precedence.

Keys use dotted notation matching the TOML sections, for example
webhook.public_base_url, provider.bot_name, llm.provider, topic.interval
or tangent.strikes. Run "huddle config list" for every key.

Examples:
  huddle config set webhook.public_base_url https://abc123.ngrok.app
  huddle config set provider.mention_aliases "mod,moderator"
  huddle config get topic.interval
  huddle config unset llm.model
  huddle config list`

const configShortDesc string = "Manage persistent huddle configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUnsetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// openFile resolves config.toml from the --config-dir flag and prints where
// it lives.
func openFile(cmd *cobra.Command) (*config.File, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	f, err := config.OpenFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(f.Path()),
	)
	return f, nil
}

// checkKey rejects unknown keys with the list of valid ones.
func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

// completeKey completes the first positional argument with config keys.
func completeKey(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printValue(w io.Writer, key, value string) {
	shown := cliui.DimStyle.Render("<not set>")
	if value != "" {
		shown = cliui.ValueStyle.Render(display(key, value))
	}
	fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render(key), shown)
}

// display masks credentials before they reach the terminal.
func display(key, value string) string {
	if isSecret(key) {
		return cliui.Secret(value)
	}
	return value
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, ".api_key") || key == "webhook.token"
}
