package commands

import (
	"context"
	"fmt"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/legitYosal/vddk-test/pkg/verify"
	"github.com/spf13/cobra"
)

type verifyRow struct {
	Size           uint64
	Chunks         int
	BytesRead      uint64
	Duration       string
	MismatchOffset int64
}

// expectedContent describes what the plugin serves in the configured mode.
func expectedContent() (verify.Expected, func(), error) {
	mode, err := cfg.FakeVddkMode()
	if err != nil {
		return nil, nil, err
	}
	if mode == fakevddk.ModeSynthetic {
		return verify.Pattern{Length: fakevddk.SyntheticSize, Value: fakevddk.SyntheticPattern}, func() {}, nil
	}
	image, err := verify.OpenImage(cfg.ImagePath)
	if err != nil {
		return nil, nil, err
	}
	return image, func() { image.Close() }, nil
}

func verifyExport(ctx context.Context, uri string, chunkSize uint64) error {
	expected, done, err := expectedContent()
	if err != nil {
		return err
	}
	defer done()

	handle, err := verify.Connect(uri)
	if err != nil {
		return err
	}
	defer handle.Close()

	report, err := verify.Export(ctx, handle, expected, chunkSize)
	if report != nil {
		Tableizer([]verifyRow{{
			Size:           report.Size,
			Chunks:         report.Chunks,
			BytesRead:      report.BytesRead,
			Duration:       report.Duration.String(),
			MismatchOffset: report.MismatchOffset,
		}})
	}
	return err
}

var verifyCmd = &cobra.Command{
	Use:   "verify --uri NBD_URI",
	Short: "Read a served export back and compare it with the expected content",
	Long:  `The verify command reads the whole export at NBD_URI through libnbd and compares it with the backing image, or with the 0x55 pattern in synthetic mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uri := cmd.Flag("uri").Value.String()
		chunkSize, err := cmd.Flags().GetUint64("chunk-size")
		if err != nil {
			return fmt.Errorf("failed to get chunk-size flag value: %w", err)
		}
		return verifyExport(cmd.Context(), uri, chunkSize)
	},
}

func init() {
	verifyCmd.Flags().String("uri", "", "NBD URI, e.g. nbd+unix:///?socket=/tmp/nbdkit.sock")
	verifyCmd.MarkFlagRequired("uri")
	verifyCmd.Flags().Uint64("chunk-size", verify.DefaultChunkSize, "Bytes per NBD read")
	rootCmd.AddCommand(verifyCmd)
}
