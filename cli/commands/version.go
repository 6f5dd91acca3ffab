package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/staticsql/cli/internal/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if versionVerbose {
			fmt.Println(info.FullString())
			return nil
		}
		fmt.Println(info.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Print build details")

	rootCmd.AddCommand(versionCmd)
}
