package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/legitYosal/vddk-test/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfg *config.Config
var logger *slog.Logger

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fakevddk",
	Short: "Test harness for the fake VDDK nbdkit plugin.",
	Long: `fakevddk prepares and drives the fake VDDK nbdkit plugin: it builds the
vddk plugin arguments an importer would pass, stages the backing disk image,
runs nbdkit with the plugin and verifies what it serves.`,
	SilenceUsage: true,
	// Unmarshal configuration from viper and set up logging before any subcommand runs.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if _, err := cfg.FakeVddkMode(); err != nil {
			return err
		}
		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "", "Fake VDDK mode: validating, count-only or synthetic (env: FAKEVDDK_MODE)")
	flags.String("image-path", "", "Backing disk image served by the plugin (env: FAKEVDDK_IMAGE_PATH)")
	flags.String("plugin-path", "", "Path of the built plugin shared object (env: FAKEVDDK_PLUGIN_PATH)")
	flags.String("vmware-host", "", "VMware vCenter/ESXi host (env: VMWARE_HOST)")
	flags.String("vmware-username", "", "VMware vCenter/ESXi username (env: VMWARE_USERNAME)")
	flags.String("vmware-password", "", "VMware vCenter/ESXi password (env: VMWARE_PASSWORD)")
	flags.String("s3-url", "", "S3 endpoint URL (env: S3_URL)")
	flags.String("s3-secret-key", "", "S3 secret key (env: S3_SECRET_KEY)")
	flags.String("s3-access-key", "", "S3 access key (env: S3_ACCESS_KEY)")
	flags.String("s3-bucket-name", "", "S3 bucket name (env: S3_BUCKET_NAME)")
	flags.String("s3-region", "", "S3 region (env: S3_REGION)")
	flags.Bool("debug", false, "Debug mode (env: DEBUG)")

	// Bind each cobra flag to its corresponding viper key; config.SetDefaults
	// already bound the environment variables.
	viper.BindPFlag("FAKEVDDK_MODE", flags.Lookup("mode"))
	viper.BindPFlag("FAKEVDDK_IMAGE_PATH", flags.Lookup("image-path"))
	viper.BindPFlag("FAKEVDDK_PLUGIN_PATH", flags.Lookup("plugin-path"))
	viper.BindPFlag("VMWARE_HOST", flags.Lookup("vmware-host"))
	viper.BindPFlag("VMWARE_USERNAME", flags.Lookup("vmware-username"))
	viper.BindPFlag("VMWARE_PASSWORD", flags.Lookup("vmware-password"))
	viper.BindPFlag("S3_URL", flags.Lookup("s3-url"))
	viper.BindPFlag("S3_SECRET_KEY", flags.Lookup("s3-secret-key"))
	viper.BindPFlag("S3_ACCESS_KEY", flags.Lookup("s3-access-key"))
	viper.BindPFlag("S3_BUCKET_NAME", flags.Lookup("s3-bucket-name"))
	viper.BindPFlag("S3_REGION", flags.Lookup("s3-region"))
	viper.BindPFlag("DEBUG", flags.Lookup("debug"))
}
