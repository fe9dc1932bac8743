package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/pkg/cliui"
)

const listLongDesc string = `List all configuration values.

Shows every key grouped by TOML section. Keys still at their default are
dimmed. Credentials are masked.

Examples:
  huddle config list
  huddle config list --changed`

func newListCmd() *cobra.Command {
	var changedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			values, err := f.Values()
			if err != nil {
				return err
			}

			width := 0
			for _, kv := range values {
				width = max(width, len(kv.Key))
			}

			w := cmd.OutOrStdout()
			section := ""
			for _, kv := range values {
				if changedOnly && kv.Default {
					continue
				}

				if s := sectionOf(kv.Key); s != section {
					if section != "" {
						fmt.Fprintln(w)
					}
					section = s
					fmt.Fprintf(w, "  %s\n", cliui.NameStyle.Render("["+s+"]"))
				}

				value := "<not set>"
				if kv.Value != "" {
					value = display(kv.Key, kv.Value)
				}
				line := fmt.Sprintf("    %-*s = %s", width, kv.Key, value)
				if kv.Default {
					line = cliui.DimStyle.Render(line)
				}
				fmt.Fprintln(w, line)
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	cmd.Flags().BoolVar(&changedOnly, "changed", false, "Only show keys that differ from their defaults")
	return cmd
}

func sectionOf(key string) string {
	section, _, _ := strings.Cut(key, ".")
	return section
}
