package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Mode     string
	Count    int
	Expected int
	Result   string
}

var checkArgsCmd = &cobra.Command{
	Use:   "check-args KEY=VALUE...",
	Short: "Run plugin arguments through the fake VDDK configuration check",
	Long:  `The check-args command feeds KEY=VALUE pairs to a fake VDDK configuration session exactly as nbdkit would and reports whether the plugin would accept them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := cfg.SessionOptions()
		if err != nil {
			return err
		}
		session := fakevddk.NewSession(opts)
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("argument %q is not in KEY=VALUE form", arg)
			}
			if err := session.Config(key, value); err != nil {
				slog.Error("Plugin rejected argument", "key", key, "error", err)
				return err
			}
		}
		_, err = session.Complete()
		result := checkResult{
			Mode:     string(session.Mode()),
			Count:    session.Count(),
			Expected: session.Expected(),
			Result:   "accepted",
		}
		if err != nil {
			result.Result = err.Error()
		}
		Tableizer([]checkResult{result})
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkArgsCmd)
}
