package commands

import (
	"fmt"
	"log/slog"

	"github.com/legitYosal/vddk-test/pkg/config"
	"github.com/legitYosal/vddk-test/pkg/nbdkit"
	"github.com/legitYosal/vddk-test/pkg/vmware"
	"github.com/spf13/cobra"
	"github.com/vmware/govmomi/vim25/types"
)

func vmwareClient(cmd *cobra.Command) (*vmware.Client, error) {
	if err := config.ValidateVMwareConfig(cfg); err != nil {
		return nil, err
	}
	return vmware.Connect(cmd.Context(), vmware.EndpointURL(cfg.VMWareHOST, cfg.VMWareUsername, cfg.VMWarePassword))
}

// listVmsCmd represents the 'list-vms' command
var listVmsCmd = &cobra.Command{
	Use:   "list-vms",
	Short: "Lists all available virtual machines",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := vmwareClient(cmd)
		if err != nil {
			return err
		}
		vms, err := client.ListVMs(cmd.Context())
		if err != nil {
			slog.Error("failed to list VMs", "error", err)
			return fmt.Errorf("failed to list VMs: %w", err)
		}
		Tableizer(vms)
		return nil
	},
}

var listDisksCmd = &cobra.Command{
	Use:   "list-disks VM_PATH",
	Short: "Lists a VM's disks and the vddk arguments to read each of them",
	Long:  `The list-disks command resolves VM_PATH in vCenter, lists its disks and prints the vddk plugin arguments an importer would build for every disk, optionally through a named snapshot.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := vmwareClient(cmd)
		if err != nil {
			return err
		}
		vm, err := client.FindVM(ctx, args[0])
		if err != nil {
			return err
		}
		snapshotName := cmd.Flag("snapshot").Value.String()
		createSnapshot, _ := cmd.Flags().GetBool("import-snapshot")

		var snapshotRef *types.ManagedObjectReference
		switch {
		case createSnapshot:
			snapshotRef, err = vm.CreateImportSnapshot(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := vm.RemoveImportSnapshot(ctx); err != nil {
					slog.Error("Failed to remove import snapshot", "vm", args[0], "error", err)
				}
			}()
		case snapshotName != "":
			snapshotRef = vm.FindSnapshot(snapshotName)
			if snapshotRef == nil {
				return fmt.Errorf("snapshot %q not found on %s", snapshotName, args[0])
			}
		}
		snapshot := ""
		if snapshotRef != nil {
			snapshot = snapshotRef.Value
		}
		disks, err := vm.Disks(ctx, snapshotRef)
		if err != nil {
			return err
		}
		Tableizer(disks)

		thumbprint, err := vmware.GetEndpointThumbprint(client.Endpoint)
		if err != nil {
			return err
		}
		for i := range disks {
			vddk := client.VddkConfig(vm, &disks[i], snapshot, thumbprint)
			pluginArgs := vddk.PluginArgs("")
			fmt.Printf("%s (expected by plugin: %d)\n", disks[i].Label, nbdkit.ExpectedCount(pluginArgs))
			Tableizer(pluginArgs)
		}
		return nil
	},
}

func init() {
	listDisksCmd.Flags().String("snapshot", "", "Read disks from this snapshot")
	listDisksCmd.Flags().Bool("import-snapshot", false, "Create a temporary import snapshot and read disks from it")
	listDisksCmd.MarkFlagsMutuallyExclusive("snapshot", "import-snapshot")
	rootCmd.AddCommand(listVmsCmd)
	rootCmd.AddCommand(listDisksCmd)
}
