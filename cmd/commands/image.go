package commands

import (
	"fmt"

	"github.com/legitYosal/vddk-test/pkg/config"
	"github.com/legitYosal/vddk-test/pkg/vms3"
	"github.com/spf13/cobra"
)

func s3Client(cmd *cobra.Command) (*vms3.S3DB, error) {
	if err := config.ValidateS3Config(cfg); err != nil {
		return nil, err
	}
	return vms3.CreateS3Client(cmd.Context(), cfg.S3URL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Region, cfg.S3BucketName)
}

var stageImageCmd = &cobra.Command{
	Use:   "stage-image OBJECT_KEY",
	Short: "Download the backing disk image from S3",
	Long:  `The stage-image command downloads OBJECT_KEY from the configured bucket and writes it to the image path the plugin serves. Keys ending in .zst are decompressed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := s3Client(cmd)
		if err != nil {
			return err
		}
		size, err := db.StageImage(cmd.Context(), args[0], cfg.ImagePath)
		if err != nil {
			return err
		}
		fmt.Printf("staged %s to %s (%d bytes)\n", args[0], cfg.ImagePath, size)
		return nil
	},
}

var publishImageCmd = &cobra.Command{
	Use:   "publish-image PATH OBJECT_KEY",
	Short: "Upload a disk image to S3 for later staging",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := s3Client(cmd)
		if err != nil {
			return err
		}
		return db.PublishImage(cmd.Context(), args[0], args[1])
	},
}

var listImagesCmd = &cobra.Command{
	Use:   "list-images [PREFIX]",
	Short: "List disk images in the configured bucket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := s3Client(cmd)
		if err != nil {
			return err
		}
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		keys, err := db.ListObjects(cmd.Context(), prefix)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}
		Tableizer(keys)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stageImageCmd)
	rootCmd.AddCommand(publishImageCmd)
	rootCmd.AddCommand(listImagesCmd)
}
