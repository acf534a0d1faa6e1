package commands

import (
	"fmt"

	"github.com/legitYosal/vddk-test/pkg/nbdkit"
	"github.com/spf13/cobra"
)

var argsCmd = &cobra.Command{
	Use:   "args",
	Short: "Print the vddk plugin arguments an importer would pass",
	Long:  `The args command builds the vddk plugin arguments from the given flags in the order an importer passes them and shows how many the plugin will expect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pluginArgs := vddkConfigFromFlags(cmd).PluginArgs("")
		Tableizer(pluginArgs)
		fmt.Printf("arguments: %d, expected by plugin: %d\n", len(pluginArgs), nbdkit.ExpectedCount(pluginArgs))
		return nil
	},
}

func init() {
	addVddkFlags(argsCmd)
	rootCmd.AddCommand(argsCmd)
}
