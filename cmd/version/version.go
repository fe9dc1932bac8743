// Package versioncmder provides the version command.
package versioncmder

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the huddle version",
		Long:  "Print the version, commit, build time and Go runtime of this huddle binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), utils.Version)
				return err
			}
			return printVersion(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	return cmd
}

func printVersion(w io.Writer) error {
	rows := [][2]string{
		{"Version:", utils.Version},
		{"Commit:", utils.Sha},
		{"Built:", utils.Buildtime},
		{"Go:", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", cliui.KeyStyle.Render(row[0]), row[1]); err != nil {
			return err
		}
	}
	return nil
}
