package commands

import (
	"github.com/legitYosal/vddk-test/pkg/nbdkit"
	"github.com/spf13/cobra"
)

// addVddkFlags registers the flags describing one vddk plugin invocation.
func addVddkFlags(cmd *cobra.Command) {
	cmd.Flags().String("libdir", nbdkit.DefaultVddkLibDir, "VDDK library directory")
	cmd.Flags().String("server", "", "vCenter/ESXi server passed to the plugin")
	cmd.Flags().String("user", "", "vCenter/ESXi user passed to the plugin")
	cmd.Flags().String("password", "", "vCenter/ESXi password passed to the plugin")
	cmd.Flags().String("thumbprint", "", "SHA-1 thumbprint of the server certificate")
	cmd.Flags().String("moref", "", "Managed object reference of the VM, e.g. vm-21")
	cmd.Flags().String("file", "", "Disk backing file, e.g. '[datastore] vm/vm.vmdk'")
	cmd.Flags().String("snapshot", "", "Snapshot moref to read the disk from")
	cmd.Flags().String("config-file", "", "VDDK extra configuration file")
}

func vddkConfigFromFlags(cmd *cobra.Command) *nbdkit.VddkConfig {
	get := func(name string) string {
		return cmd.Flag(name).Value.String()
	}
	return &nbdkit.VddkConfig{
		LibDir:     get("libdir"),
		Server:     get("server"),
		Username:   get("user"),
		Password:   get("password"),
		Thumbprint: get("thumbprint"),
		Moref:      get("moref"),
		Snapshot:   get("snapshot"),
		File:       get("file"),
		ConfigFile: get("config-file"),
	}
}
