package vmware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
)

func firstVM(ctx context.Context, t *testing.T, c *Client) *CompleteVirtualMachine {
	t.Helper()
	vms, err := c.ListVMs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, vms)
	vm, err := c.FindVM(ctx, vms[0].Path)
	require.NoError(t, err)
	return vm
}

func TestDisksAndVddkConfig(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c, err := NewClient(ctx, vc, EndpointURL("vcenter.test", "user", "pass"))
		require.NoError(t, err)
		vm := firstVM(ctx, t, c)

		disks, err := vm.Disks(ctx, nil)
		require.NoError(t, err)
		require.NotEmpty(t, disks)
		require.True(t, strings.HasSuffix(disks[0].FileName, ".vmdk"), disks[0].FileName)

		cfg := c.VddkConfig(vm, &disks[0], "", "testprint")
		require.Equal(t, "vcenter.test", cfg.Server)
		require.Equal(t, vm.M.Reference().Value, cfg.Moref)
		require.Equal(t, disks[0].FileName, cfg.File)

		s := fakevddk.NewSession(fakevddk.Options{Mode: fakevddk.ModeCountOnly})
		for _, a := range cfg.PluginArgs("") {
			require.NoError(t, s.Config(a.Key, a.Value))
		}
		_, err = s.Complete()
		require.NoError(t, err)
	})
}

func TestImportSnapshot(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c, err := NewClient(ctx, vc, EndpointURL("vcenter.test", "user", "pass"))
		require.NoError(t, err)
		vm := firstVM(ctx, t, c)

		require.Nil(t, vm.FindSnapshot(ImportSnapshotName))
		require.NoError(t, vm.RemoveImportSnapshot(ctx))

		ref, err := vm.CreateImportSnapshot(ctx)
		require.NoError(t, err)
		found := vm.FindSnapshot(ImportSnapshotName)
		require.NotNil(t, found)
		require.Equal(t, ref.Value, found.Value)

		disks, err := vm.Disks(ctx, ref)
		require.NoError(t, err)
		require.NotEmpty(t, disks)

		cfg := c.VddkConfig(vm, &disks[0], ref.Value, "testprint")
		require.Len(t, cfg.PluginArgs(""), 9)

		require.NoError(t, vm.RemoveImportSnapshot(ctx))
		require.Nil(t, vm.FindSnapshot(ImportSnapshotName))
	})
}

func TestGetEndpointThumbprint(t *testing.T) {
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	defer ts.Close()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	thumbprint, err := GetEndpointThumbprint(u)
	require.NoError(t, err)
	require.Equal(t, soap.ThumbprintSHA1(ts.Certificate()), thumbprint)
	require.Len(t, thumbprint, 59)
}
