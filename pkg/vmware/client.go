package vmware

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/legitYosal/vddk-test/pkg/nbdkit"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/session/keepalive"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
)

type Client struct {
	Vim      *vim25.Client
	Finder   *find.Finder
	Endpoint *url.URL
}

func EndpointURL(host, username, password string) *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   host,
		User:   url.UserPassword(username, password),
		Path:   "sdk",
	}
}

// Connect logs in to vCenter/ESXi. Certificates are not verified; the
// thumbprint handed to VDDK is computed separately.
func Connect(ctx context.Context, endpoint *url.URL) (*Client, error) {
	soapClient := soap.NewClient(endpoint, true)
	vimClient, err := vim25.NewClient(ctx, soapClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create VMware client: %w", err)
	}

	vimClient.RoundTripper = keepalive.NewHandlerSOAP(
		vimClient.RoundTripper,
		15*time.Second,
		nil,
	)
	mgr := session.NewManager(vimClient)
	if err := mgr.Login(ctx, endpoint.User); err != nil {
		return nil, fmt.Errorf("failed to login to VMware: %w", err)
	}
	return NewClient(ctx, vimClient, endpoint)
}

// NewClient wraps an already authenticated vim25 client.
func NewClient(ctx context.Context, vimClient *vim25.Client, endpoint *url.URL) (*Client, error) {
	finder := find.NewFinder(vimClient)
	dc, err := finder.DefaultDatacenter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find default datacenter: %w", err)
	}
	finder.SetDatacenter(dc)
	return &Client{
		Vim:      vimClient,
		Finder:   finder,
		Endpoint: endpoint,
	}, nil
}

type VMData struct {
	Name string
	ID   string
	Path string
}

func (c *Client) ListVMs(ctx context.Context) ([]VMData, error) {
	var vmData []VMData
	vmList, err := c.Finder.VirtualMachineList(ctx, "*")
	if err != nil {
		return nil, fmt.Errorf("failed to list VMs: %w", err)
	}
	for _, vm := range vmList {
		vmData = append(vmData, VMData{
			Name: vm.Name(),
			ID:   vm.Reference().Value,
			Path: vm.InventoryPath,
		})
	}
	return vmData, nil
}

func (c *Client) FindVM(ctx context.Context, vmPath string) (*CompleteVirtualMachine, error) {
	vm, err := c.Finder.VirtualMachine(ctx, vmPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find VM %s: %w", vmPath, err)
	}
	return LoadVirtualMachine(ctx, vm)
}

// VddkConfig returns the vddk plugin arguments needed to read disk, optionally
// through snapshot.
func (c *Client) VddkConfig(vm *CompleteVirtualMachine, disk *DiskInfo, snapshot string, thumbprint string) *nbdkit.VddkConfig {
	password, _ := c.Endpoint.User.Password()
	return &nbdkit.VddkConfig{
		Server:     c.Endpoint.Hostname(),
		Username:   c.Endpoint.User.Username(),
		Password:   password,
		Thumbprint: thumbprint,
		Moref:      vm.M.Reference().Value,
		Snapshot:   snapshot,
		File:       disk.FileName,
	}
}

// GetEndpointThumbprint returns the SHA-1 thumbprint of the endpoint's TLS
// certificate in the colon separated form VDDK expects.
func GetEndpointThumbprint(endpoint *url.URL) (string, error) {
	host := endpoint.Host
	if endpoint.Port() == "" {
		host = net.JoinHostPort(endpoint.Hostname(), "443")
	}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", host, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", fmt.Errorf("no certificate presented by %s", host)
	}
	return soap.ThumbprintSHA1(certs[0]), nil
}
