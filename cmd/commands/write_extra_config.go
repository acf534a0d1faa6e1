package commands

import (
	"log/slog"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var writeExtraConfigCmd = &cobra.Command{
	Use:   "write-extra-config PATH",
	Short: "Write a VDDK extra configuration file the plugin accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fakevddk.WriteExtraConfig(afero.NewOsFs(), args[0]); err != nil {
			return err
		}
		slog.Info("Wrote VDDK extra configuration file", "path", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeExtraConfigCmd)
}
