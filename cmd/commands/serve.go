package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/legitYosal/vddk-test/pkg/nbdkit"
	"github.com/legitYosal/vddk-test/pkg/verify"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run nbdkit with the fake VDDK plugin",
	Long: `The serve command starts nbdkit with the fake VDDK plugin and the vddk arguments
given as flags, prints the NBD URI and serves until interrupted. With --verify it
reads the export back once and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vddk := vddkConfigFromFlags(cmd)
		verbose, _ := cmd.Flags().GetBool("verbose")
		check, _ := cmd.Flags().GetBool("verify")
		filters, err := cmd.Flags().GetStringSlice("filter")
		if err != nil {
			return fmt.Errorf("failed to get filter flag value: %w", err)
		}

		nbdCfg := nbdkit.NewNBDKitSocketConfig(cfg.PluginPath, vddk)
		nbdCfg.Verbose = verbose
		for _, f := range filters {
			nbdCfg.WithFilter(f)
		}
		nbdCfg.Env = []string{
			"FAKEVDDK_MODE=" + cfg.Mode,
			"FAKEVDDK_IMAGE_PATH=" + cfg.ImagePath,
		}
		server, err := nbdCfg.Build()
		if err != nil {
			return err
		}
		defer server.Stop()

		if err := server.Start(); err != nil {
			return err
		}
		uri := server.LibNBDExportName()
		slog.Info("nbdkit is serving the fake VDDK plugin", "uri", uri, "mode", cfg.Mode)

		if check {
			return verifyExport(cmd.Context(), uri, verify.DefaultChunkSize)
		}
		fmt.Println(uri)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	},
}

func init() {
	addVddkFlags(serveCmd)
	serveCmd.Flags().Bool("verbose", false, "Run nbdkit with --verbose")
	serveCmd.Flags().StringSlice("filter", nil, "nbdkit filters to stack on the plugin, e.g. retry")
	serveCmd.Flags().Bool("verify", false, "Verify the export once and exit")
	rootCmd.AddCommand(serveCmd)
}
