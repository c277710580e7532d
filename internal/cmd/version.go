package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetInfo("thinkt-live")
		if versionJSON {
			_ = json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.String("thinkt-live"))
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
}
